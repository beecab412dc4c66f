package report

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	productiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/production/domain"
)

type stubProduction struct {
	outputs []productiondomain.MachineOutput
	backlog []productiondomain.BacklogEntry
}

func (s *stubProduction) DailyOutput(ctx context.Context, date time.Time) ([]productiondomain.MachineOutput, error) {
	return s.outputs, nil
}

func (s *stubProduction) RollingAverage(ctx context.Context, days int) ([]productiondomain.MachineAverage, error) {
	return nil, nil
}

func (s *stubProduction) Backlog(ctx context.Context) ([]productiondomain.BacklogEntry, error) {
	return s.backlog, nil
}

func (s *stubProduction) Matrix(ctx context.Context, from, to time.Time) (*productiondomain.Matrix, error) {
	return nil, nil
}

func TestDailyProductionRendersPDF(t *testing.T) {
	svc := New(Params{
		Log: zap.NewNop(),
		Production: &stubProduction{
			outputs: []productiondomain.MachineOutput{
				{MachineID: 1, MachineName: "TR-80", OrderCount: 3, TotalWeight: 412.5},
				{MachineID: 2, MachineName: "TR-120", OrderCount: 1, TotalWeight: 98.0},
			},
			backlog: []productiondomain.BacklogEntry{
				{MachineID: 1, MachineName: "TR-80", OrderCount: 2, RequestedWeight: 250},
			},
		},
	})

	reader, err := svc.DailyProduction(context.Background(), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("daily production: %v", err)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty document")
	}
	if !strings.HasPrefix(string(raw[:5]), "%PDF-") {
		t.Fatalf("expected PDF header, got %q", raw[:5])
	}
}

func TestDailyProductionEmptyDay(t *testing.T) {
	svc := New(Params{
		Log:        zap.NewNop(),
		Production: &stubProduction{},
	})

	reader, err := svc.DailyProduction(context.Background(), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("daily production: %v", err)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty document")
	}
}
