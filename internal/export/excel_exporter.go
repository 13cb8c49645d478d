package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tes/survey-portal/survey-portal-backend/internal/surveys"
)

const registerSheetName = "Asset Register"

var registerColumns = []string{
	"Asset Tag",
	"Asset Type",
	"Quantity",
	"Location",
	"Service",
	"Complexity",
	"Obstruction",
	"Obstruction Type",
	"Cap End",
	"Notes",
}

// RegisterExporter exports a survey's asset register to Excel format
type RegisterExporter struct {
	file *excelize.File
}

// NewRegisterExporter creates a new asset register exporter
func NewRegisterExporter() *RegisterExporter {
	file := excelize.NewFile()
	file.SetSheetName("Sheet1", registerSheetName)
	return &RegisterExporter{file: file}
}

// Write writes the header and one row per asset
func (e *RegisterExporter) Write(survey *surveys.Survey, assets []*surveys.Asset) error {
	headerStyle, err := e.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, col := range registerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		e.file.SetCellValue(registerSheetName, cell, col)
		e.file.SetCellStyle(registerSheetName, cell, cell, headerStyle)
	}

	for i, asset := range assets {
		row := i + 2
		values := []interface{}{
			asset.AssetTag,
			asset.AssetType,
			asset.Quantity,
			asset.Location(),
			deref(asset.Service),
			asset.ComplexityLevel,
			asset.ObstructionPresent,
			deref(asset.ObstructionType),
			asset.CapEndPresent,
			deref(asset.ObstructionNotes),
		}
		for j, val := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			e.file.SetCellValue(registerSheetName, cell, val)
		}
	}

	// Title rows above the data would complicate filtering; survey context
	// goes into the sheet's doc properties instead.
	e.file.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Asset Register - %s", survey.SiteName),
		Subject: survey.ProjectRef(),
	})

	e.file.SetPanes(registerSheetName, &excelize.Panes{
		Freeze: true,
		YSplit: 1,
	})
	return nil
}

// Bytes serializes the workbook
func (e *RegisterExporter) Bytes() ([]byte, error) {
	buf, err := e.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the underlying file resources
func (e *RegisterExporter) Close() error {
	return e.file.Close()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
