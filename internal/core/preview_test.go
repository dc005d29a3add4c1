package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

const scenarioCSV = "username,dept,fullname\nalice,Ops,Alice A\nalice,Eng,Alice B\n,IT,NoName\n"

func TestPreview_Scenario(t *testing.T) {
	store := newFakeStore()
	planner := NewPlanner(store)

	got, err := planner.Preview(context.Background(), []byte(scenarioCSV))
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	want := &PreviewResult{
		TotalRows: 3,
		Duplicates: []PreviewDuplicate{
			{RowNumber: 2, Username: "alice", Reason: "Duplicate in CSV"},
		},
		MissingUsername: []PreviewMissing{
			{RowNumber: 3, Reason: "Missing username"},
		},
		Insertable: 1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Preview() = %+v, want %+v", got, want)
	}
	if len(store.inserted) != 0 {
		t.Errorf("Preview wrote %d rows, want none", len(store.inserted))
	}
}

func TestPreview_StoreDuplicateHasNoReason(t *testing.T) {
	planner := NewPlanner(newFakeStore("Bob"))

	got, err := planner.Preview(context.Background(), []byte("user\nbob\ncarol\n"))
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	if len(got.Duplicates) != 1 {
		t.Fatalf("duplicates = %+v, want one", got.Duplicates)
	}
	if d := got.Duplicates[0]; d.RowNumber != 1 || d.Username != "bob" || d.Reason != "" {
		t.Errorf("duplicate = %+v, want row 1 bob without reason", d)
	}
	if got.Insertable != 1 {
		t.Errorf("insertable = %d, want 1", got.Insertable)
	}
}

func TestPreview_Idempotent(t *testing.T) {
	store := newFakeStore("existing")
	planner := NewPlanner(store)
	data := []byte("username\nExisting\nnew\nNEW\n\n  \nother\n")

	first, err := planner.Preview(context.Background(), data)
	if err != nil {
		t.Fatalf("first Preview returned error: %v", err)
	}
	second, err := planner.Preview(context.Background(), data)
	if err != nil {
		t.Fatalf("second Preview returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Preview not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
	if store.listCalls != 2 {
		t.Errorf("identity set loaded %d times, want once per call", store.listCalls)
	}
}

func TestPreview_InsertableInvariant(t *testing.T) {
	files := []string{
		scenarioCSV,
		"username\na\nb\nc\n",
		"username,dept\n,x\n,y\n",
		"user\nA\na\nA\nb\n",
		"username\nstored\nSTORED\nfresh\n",
	}

	planner := NewPlanner(newFakeStore("stored"))
	for _, f := range files {
		got, err := planner.Preview(context.Background(), []byte(f))
		if err != nil {
			t.Fatalf("Preview(%q) returned error: %v", f, err)
		}
		want := got.TotalRows - len(got.Duplicates) - len(got.MissingUsername)
		if got.Insertable != want {
			t.Errorf("Preview(%q).Insertable = %d, want %d", f, got.Insertable, want)
		}
	}
}

func TestPreview_RequestErrors(t *testing.T) {
	planner := NewPlanner(newFakeStore())

	if _, err := planner.Preview(context.Background(), []byte("username\n")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("header-only file: err = %v, want ErrEmptyFile", err)
	}

	store := newFakeStore()
	store.notReady = true
	if _, err := NewPlanner(store).Preview(context.Background(), []byte(scenarioCSV)); !errors.Is(err, ErrStoreNotReady) {
		t.Errorf("store not ready: err = %v, want ErrStoreNotReady", err)
	}
}
