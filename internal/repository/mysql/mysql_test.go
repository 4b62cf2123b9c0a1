package mysql

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/nexusnotes/nexus-notes/internal/document"
)

func TestIsDuplicateEntryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate entry", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"wrapped duplicate", fmt.Errorf("insert: %w", &gomysql.MySQLError{Number: 1062}), true},
		{"other mysql error", &gomysql.MySQLError{Number: 1452}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateEntryError(tt.err); got != tt.want {
				t.Errorf("isDuplicateEntryError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNullable(t *testing.T) {
	if n := nullable(""); n.Valid {
		t.Error("expected empty string to be NULL")
	}
	if n := nullable("sub-1"); !n.Valid || n.String != "sub-1" {
		t.Errorf("unexpected value %+v", n)
	}
}

type fakeRow struct {
	values []any
}

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r.values) {
		return fmt.Errorf("expected %d columns, got %d", len(r.values), len(dest))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

func TestScanNote(t *testing.T) {
	now := time.Now().UTC()
	row := fakeRow{values: []any{
		"n-1", "u-1", "Title",
		[]byte(`[{"type":"heading","children":[{"text":"Hi","bold":true}]}]`),
		now, now,
	}}

	n, err := scanNote(row)
	if err != nil {
		t.Fatalf("scanNote() error = %v", err)
	}
	if n.ID != "n-1" || n.UserID != "u-1" || n.Title != "Title" {
		t.Errorf("unexpected note %+v", n)
	}
	if got := document.PlainText(n.Content); got != "Hi" {
		t.Errorf("PlainText() = %q, want %q", got, "Hi")
	}
}

func TestScanNote_CorruptContent(t *testing.T) {
	now := time.Now().UTC()
	row := fakeRow{values: []any{"n-1", "u-1", "Title", []byte(`"oops"`), now, now}}

	_, err := scanNote(row)
	if !errors.Is(err, document.ErrInvalidContent) {
		t.Errorf("expected ErrInvalidContent, got %v", err)
	}
}

func TestScanNote_KeepsContentAttributes(t *testing.T) {
	stored := `[{"type":"image","url":"https://x/y.png","children":[{"text":"","code":true}]}]`
	now := time.Now().UTC()
	row := fakeRow{values: []any{"n-1", "u-1", "Title", []byte(stored), now, now}}

	n, err := scanNote(row)
	if err != nil {
		t.Fatalf("scanNote() error = %v", err)
	}

	out, err := json.Marshal(n.Content)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var got, want any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(stored), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("content = %s, want %s", out, stored)
	}
}
