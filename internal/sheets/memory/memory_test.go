package memory

import (
	"context"
	"testing"
)

func TestMemoryStoreWriteRows(t *testing.T) {
	s := New()
	rows := [][]any{{"Titular", "Total"}, {"Ignacio", 1200.0}}

	ref, err := s.WriteRows(context.Background(), "Resumen", rows)
	if err != nil || ref != "mem:Resumen!A1:R2" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}

	rows[1][1] = 0.0
	got, ok := s.Rows("Resumen")
	if !ok || len(got) != 2 || got[1][1] != 1200.0 {
		t.Fatalf("rows should be copied on write: %v", got)
	}

	got[0][0] = "changed"
	again, _ := s.Rows("Resumen")
	if again[0][0] != "Titular" {
		t.Error("rows should be copied on read")
	}

	if _, err := s.WriteRows(context.Background(), "Resumen", [][]any{{"x"}}); err != nil {
		t.Fatal(err)
	}
	if s.Writes() != 2 {
		t.Errorf("writes = %d, want 2", s.Writes())
	}
	if latest, _ := s.Rows("Resumen"); len(latest) != 1 {
		t.Errorf("second write should replace rows: %v", latest)
	}
}

func TestMemoryStoreRejectsEmptySheet(t *testing.T) {
	if _, err := New().WriteRows(context.Background(), "", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := New().Rows("missing"); ok {
		t.Error("unknown sheet should not be found")
	}
}
