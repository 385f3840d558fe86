// Package export renders interview feedback as an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"mockview/internal/interview/models"
)

const (
	SummarySheet = "Summary"
	AnswersSheet = "Answers"

	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var answerHeaders = []string{"#", "Question", "Your Answer", "Expected Answer", "Rating", "Feedback"}

// Filename is the download name for an interview's feedback workbook.
func Filename(mockID string) string {
	return fmt.Sprintf("mockview-feedback-%s.xlsx", mockID)
}

// WriteFeedback writes a Summary sheet and an Answers sheet to w.
func WriteFeedback(w io.Writer, fb *models.Feedback, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(AnswersSheet); err != nil {
		return fmt.Errorf("create answers sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := writeSummary(f, styles, fb, generatedAt); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := writeAnswers(f, styles, fb.Answers); err != nil {
		return fmt.Errorf("write answers sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type styles struct {
	header int
	label  int
	wrap   int
	good   int
	fair   int
	poor   int
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border(),
	}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("label style: %w", err)
	}
	if s.wrap, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border(),
	}); err != nil {
		return s, fmt.Errorf("wrap style: %w", err)
	}
	fill := func(color string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
			Border:    border(),
		})
	}
	if s.good, err = fill("C6EFCE"); err != nil {
		return s, err
	}
	if s.fair, err = fill("FFEB9C"); err != nil {
		return s, err
	}
	if s.poor, err = fill("FFC7CE"); err != nil {
		return s, err
	}
	return s, nil
}

func (s styles) rating(r int) int {
	switch {
	case r >= 8:
		return s.good
	case r >= 5:
		return s.fair
	default:
		return s.poor
	}
}

func writeSummary(f *excelize.File, st styles, fb *models.Feedback, generatedAt time.Time) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 50); err != nil {
		return err
	}
	answered := 0
	for _, a := range fb.Answers {
		if a.Rating > 0 {
			answered++
		}
	}
	rows := [][2]any{
		{"Interview ID", fb.InterviewID},
		{"Job Position", fb.JobPosition},
		{"Generated", generatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Questions", len(fb.Answers)},
		{"Answered", answered},
		{"Overall Rating", fb.OverallRating},
	}
	if err := f.SetCellValue(SummarySheet, "A1", "Mock Interview Feedback"); err != nil {
		return err
	}
	if err := f.MergeCell(SummarySheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", st.header); err != nil {
		return err
	}
	for i, r := range rows {
		row := i + 3
		label := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(SummarySheet, label, r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, label, label, st.label); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeAnswers(f *excelize.File, st styles, answers []models.Answer) error {
	widths := map[string]float64{"A": 5, "B": 40, "C": 50, "D": 50, "E": 8, "F": 60}
	for col, w := range widths {
		if err := f.SetColWidth(AnswersSheet, col, col, w); err != nil {
			return err
		}
	}
	for i, h := range answerHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(AnswersSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(AnswersSheet, cell, cell, st.header); err != nil {
			return err
		}
	}
	for i, a := range answers {
		row := i + 2
		values := []any{i + 1, a.Question, a.UserAns, a.CorrectAns, a.Rating, a.Feedback}
		if err := f.SetSheetRow(AnswersSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(AnswersSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), st.wrap); err != nil {
			return err
		}
		rating := fmt.Sprintf("E%d", row)
		if err := f.SetCellStyle(AnswersSheet, rating, rating, st.rating(a.Rating)); err != nil {
			return err
		}
	}
	return f.SetPanes(AnswersSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
