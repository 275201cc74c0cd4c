package models

import (
	"productmap/internal/normalize"
)

// CustomAttribute is a tenant-defined field collected during imports
type CustomAttribute struct {
	BaseTenantModel
	Name         string `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Type         string `gorm:"size:16;not null" json:"type" validate:"required,oneof=Number Date Yes/No Text"`
	Required     bool   `gorm:"default:false" json:"required"`
	DefaultValue string `gorm:"type:text" json:"default_value"`
	ForType      string `gorm:"size:16;not null;default:'supplier'" json:"for_type" validate:"required,oneof=supplier product"`
}

// Definition converts the row to the form used by the import pipeline
func (a CustomAttribute) Definition() normalize.AttributeDef {
	return normalize.AttributeDef{
		Name:         a.Name,
		Type:         normalize.AttributeType(a.Type),
		Required:     a.Required,
		DefaultValue: a.DefaultValue,
		ForType:      a.ForType,
	}
}

// Definitions converts a list of attribute rows
func Definitions(attrs []CustomAttribute) []normalize.AttributeDef {
	defs := make([]normalize.AttributeDef, 0, len(attrs))
	for _, a := range attrs {
		defs = append(defs, a.Definition())
	}
	return defs
}
