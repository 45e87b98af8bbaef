package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

// ErrNoTarget is returned when no export URL is configured.
var ErrNoTarget = errors.New("no export url configured")

// SheetRow is one asset as the spreadsheet endpoint expects it.
type SheetRow struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	SerialNumber string `json:"serialNumber"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	AssignedTo   string `json:"assignedTo"`
	EmployeeID   string `json:"employeeId"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	IsRental     bool   `json:"isRental"`
	IsCentral    bool   `json:"isCentral"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
	PhoneNumber  string `json:"phoneNumber"`
}

// SheetPayload is the body posted to the spreadsheet endpoint.
type SheetPayload struct {
	Assets []SheetRow `json:"assets"`
}

// NewSheetPayload converts assets to export rows. Status is the display label.
func NewSheetPayload(assets []model.Asset) SheetPayload {
	rows := make([]SheetRow, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, SheetRow{
			ID:           a.ID,
			Name:         a.Name,
			Brand:        a.Brand,
			SerialNumber: a.SerialNumber,
			Category:     string(a.Category),
			Status:       a.Status.Label(),
			AssignedTo:   a.AssignedTo,
			EmployeeID:   a.EmployeeID,
			Department:   a.Department,
			Position:     a.Position,
			IsRental:     a.IsRental,
			IsCentral:    a.IsCentral,
			Location:     a.Location,
			Notes:        a.Notes,
			PhoneNumber:  a.PhoneNumber,
		})
	}
	return SheetPayload{Assets: rows}
}

// Pusher posts asset exports to a spreadsheet endpoint.
type Pusher struct {
	Client *http.Client
}

// NewPusher returns a Pusher whose requests time out after timeout.
func NewPusher(timeout time.Duration) *Pusher {
	return &Pusher{Client: &http.Client{Timeout: timeout}}
}

// Push encodes assets and posts them to url in the background. Only encoding
// and a missing url are reported; the response is never read. done, when not
// nil, is called after the request finishes.
func (p *Pusher) Push(url string, assets []model.Asset, done func(error)) error {
	if url == "" {
		return ErrNoTarget
	}
	body, err := json.Marshal(NewSheetPayload(assets))
	if err != nil {
		return fmt.Errorf("encoding sheet export: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	go func() {
		resp, err := client.Post(url, "application/json", bytes.NewReader(body))
		if err == nil {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
			resp.Body.Close()
		} else {
			slog.Warn("sheet export failed", "error", err)
		}
		if done != nil {
			done(err)
		}
	}()
	return nil
}
