package app

import (
	"errors"
	"testing"

	"lycheesync/internal/lychee"
)

type fakeOperationLog struct {
	created  []string
	finished map[int64]string
	failNext bool
}

func (f *fakeOperationLog) CreateOperation(name, parameters string) (*lychee.Operation, error) {
	if f.failNext {
		return nil, errors.New("disk full")
	}
	f.created = append(f.created, name+" "+parameters)
	return &lychee.Operation{ID: int64(len(f.created)), Operation: name, Parameters: parameters}, nil
}

func (f *fakeOperationLog) FinishOperation(id int64, status string) error {
	if f.finished == nil {
		f.finished = make(map[int64]string)
	}
	f.finished[id] = status
	return nil
}

func TestOperation_Lifecycle(t *testing.T) {
	tests := []struct {
		name       string
		begin      bool
		err        error
		wantRows   int
		wantStatus string
	}{
		{name: "read-only command leaves no row", begin: false},
		{name: "successful command", begin: true, wantRows: 1, wantStatus: StatusSuccess},
		{name: "failed command", begin: true, err: errors.New("boom"), wantRows: 1, wantStatus: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &fakeOperationLog{}
			op := &operation{name: "scan"}

			if tt.begin {
				if err := op.begin(log, "/photos"); err != nil {
					t.Fatalf("begin() error = %v", err)
				}
				// Second begin must not add a row.
				if err := op.begin(log, "/photos"); err != nil {
					t.Fatalf("begin() error = %v", err)
				}
			}
			if got := op.observe(tt.err); got != tt.err {
				t.Errorf("observe() = %v, want %v", got, tt.err)
			}
			if err := op.finish(log); err != nil {
				t.Fatalf("finish() error = %v", err)
			}

			if len(log.created) != tt.wantRows {
				t.Fatalf("rows = %v, want %d", log.created, tt.wantRows)
			}
			if tt.wantRows == 0 {
				if len(log.finished) != 0 {
					t.Errorf("finished = %v, want none", log.finished)
				}
				return
			}
			if log.created[0] != "scan /photos" {
				t.Errorf("created = %q", log.created[0])
			}
			if got := log.finished[op.id]; got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
		})
	}
}

func TestOperation_BeginError(t *testing.T) {
	op := &operation{name: "wipe"}
	if err := op.begin(&fakeOperationLog{failNext: true}, ""); err == nil {
		t.Fatal("begin() expected error")
	}
	if op.recorded() {
		t.Error("operation recorded after failed begin")
	}
}
