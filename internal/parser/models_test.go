package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveElectrical(t *testing.T) {
	rec := MeasurementRecord{Voltage: float64Ptr(600), Current: float64Ptr(12)}
	rec.DeriveElectrical()
	assert.Equal(t, 50.0, *rec.Resistance)
	assert.Equal(t, 7200.0, *rec.Power)

	// supplied values are kept
	rec = MeasurementRecord{Voltage: float64Ptr(600), Current: float64Ptr(12), Resistance: float64Ptr(49), Power: float64Ptr(7100)}
	rec.DeriveElectrical()
	assert.Equal(t, 49.0, *rec.Resistance)
	assert.Equal(t, 7100.0, *rec.Power)

	rec = MeasurementRecord{Voltage: float64Ptr(600), Current: float64Ptr(0)}
	rec.DeriveElectrical()
	assert.Nil(t, rec.Resistance)
	assert.Equal(t, 0.0, *rec.Power)

	rec = MeasurementRecord{Voltage: float64Ptr(600)}
	rec.DeriveElectrical()
	assert.Nil(t, rec.Resistance)
	assert.Nil(t, rec.Power)
}

func TestHasMinimumData(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, (&MeasurementRecord{Timestamp: ts, Current: float64Ptr(1)}).HasMinimumData())
	assert.False(t, (&MeasurementRecord{Timestamp: ts}).HasMinimumData())
	assert.False(t, (&MeasurementRecord{Voltage: float64Ptr(1)}).HasMinimumData())
}

func TestParseErrorMessage(t *testing.T) {
	e := ParseError{Row: 4, Column: "Voltage", Message: "too high", Kind: KindRange}
	assert.Equal(t, `row 4, column "Voltage": too high`, e.Error())
	assert.Equal(t, "file is empty", ParseError{Message: "file is empty"}.Error())
}

func TestRequiredNames(t *testing.T) {
	f := ExcelFormat{Mappings: []ColumnMapping{
		{Source: ByName(" Start Date "), Required: true},
		{Source: ByName("Optional")},
		{Source: ByIndex(0), Required: true},
	}}
	assert.Equal(t, []string{"start date"}, f.RequiredNames())
}
