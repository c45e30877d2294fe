// ABOUTME: XLSX export of the dashboard workload report
// ABOUTME: One sheet of per-agent numbers plus a status summary

package metrics

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/zapdesk/zapdesk/internal/store"
)

// exportSheet is the sheet name of the workload report
const exportSheet = "Workload"

// ExportWorkload renders the current dashboard snapshot as an XLSX
// workbook: one row per sales user, then the status breakdown.
func (s *Service) ExportWorkload(ctx context.Context) ([]byte, error) {
	d, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Agent", "Assigned Chats", "Unread Messages"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	row := 2
	for _, load := range d.ChatsByUser {
		values := []any{load.Name, load.Chats, load.Unread}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("writing row: %w", err)
			}
		}
		row++
	}

	// Status summary under the per-agent table
	row++
	summary := [][]any{
		{"Open", d.ChatsByStatus[store.ChatStatusOpen]},
		{"In Progress", d.ChatsByStatus[store.ChatStatusInProgress]},
		{"Closed", d.ChatsByStatus[store.ChatStatusClosed]},
		{"Total Chats", d.TotalChats},
		{"Active Instances", d.ActiveInstances},
	}
	for _, line := range summary {
		for i, v := range line {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("writing summary: %w", err)
			}
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}

	s.logger.Debug("workload exported", "agents", len(d.ChatsByUser))
	return buf.Bytes(), nil
}
