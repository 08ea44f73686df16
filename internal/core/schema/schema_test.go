package schema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

func TestValidateJSON_Full(t *testing.T) {
	data := []byte(`{
		"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
		"game_system_id": "dnd5e",
		"name": "The Sunken Keep",
		"description": "A classic dungeon crawl.",
		"author": "J. Smith",
		"creation_date": "2024-01-15T10:00:00",
		"revision_date": "2024-03-02T08:30:00",
		"isbn": ""
	}`)

	meta, err := ValidateJSON(data)
	if err != nil {
		t.Fatalf("ValidateJSON() error = %v", err)
	}

	if meta.ID.String() != testID {
		t.Errorf("ID = %v, want %v", meta.ID, testID)
	}
	if meta.GameSystemID != "dnd5e" {
		t.Errorf("GameSystemID = %q, want dnd5e", meta.GameSystemID)
	}
	if meta.Name != "The Sunken Keep" || meta.Author != "J. Smith" {
		t.Errorf("unexpected name/author: %q / %q", meta.Name, meta.Author)
	}
	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	if meta.CreationDate == nil || !meta.CreationDate.Equal(want) {
		t.Errorf("CreationDate = %v, want %v", meta.CreationDate, want)
	}
	if meta.LastSeenPath != "" {
		t.Errorf("LastSeenPath = %q, want empty", meta.LastSeenPath)
	}
}

func TestValidate_Defaults(t *testing.T) {
	meta, err := Validate(map[string]any{
		"id":             testID,
		"game_system_id": "pathfinder",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	for name, got := range map[string]string{
		"name":        meta.Name,
		"description": meta.Description,
		"author":      meta.Author,
		"isbn":        meta.ISBN,
	} {
		if got != "" {
			t.Errorf("%s = %q, want empty", name, got)
		}
	}
	if meta.CreationDate != nil || meta.RevisionDate != nil {
		t.Errorf("dates should default to nil, got %v / %v", meta.CreationDate, meta.RevisionDate)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		doc        map[string]any
		wantFields map[string]Reason
	}{
		{
			name:       "missing id",
			doc:        map[string]any{"game_system_id": "dnd5e"},
			wantFields: map[string]Reason{"id": ReasonMissing},
		},
		{
			name:       "missing game system",
			doc:        map[string]any{"id": testID},
			wantFields: map[string]Reason{"game_system_id": ReasonMissing},
		},
		{
			name:       "missing both",
			doc:        map[string]any{"name": "x"},
			wantFields: map[string]Reason{"id": ReasonMissing, "game_system_id": ReasonMissing},
		},
		{
			name:       "null id counts as missing",
			doc:        map[string]any{"id": nil, "game_system_id": "dnd5e"},
			wantFields: map[string]Reason{"id": ReasonMissing},
		},
		{
			name:       "malformed uuid",
			doc:        map[string]any{"id": "not-a-uuid", "game_system_id": "dnd5e"},
			wantFields: map[string]Reason{"id": ReasonMalformed},
		},
		{
			name:       "nil uuid",
			doc:        map[string]any{"id": uuid.Nil.String(), "game_system_id": "dnd5e"},
			wantFields: map[string]Reason{"id": ReasonMalformed},
		},
		{
			name:       "empty game system",
			doc:        map[string]any{"id": testID, "game_system_id": ""},
			wantFields: map[string]Reason{"game_system_id": ReasonMalformed},
		},
		{
			name:       "numeric id",
			doc:        map[string]any{"id": float64(42), "game_system_id": "dnd5e"},
			wantFields: map[string]Reason{"id": ReasonWrongType},
		},
		{
			name:       "array name",
			doc:        map[string]any{"id": testID, "game_system_id": "dnd5e", "name": []any{"a"}},
			wantFields: map[string]Reason{"name": ReasonWrongType},
		},
		{
			name:       "unparsable date",
			doc:        map[string]any{"id": testID, "game_system_id": "dnd5e", "creation_date": "last tuesday"},
			wantFields: map[string]Reason{"creation_date": ReasonMalformed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := Validate(tt.doc)
			if meta != nil {
				t.Errorf("Validate() returned a record on failure: %+v", meta)
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			if len(verrs) != len(tt.wantFields) {
				t.Fatalf("got %d errors (%v), want %d", len(verrs), verrs, len(tt.wantFields))
			}
			for _, fe := range verrs {
				want, ok := tt.wantFields[fe.Field]
				if !ok {
					t.Errorf("unexpected error for field %q: %v", fe.Field, fe)
					continue
				}
				if fe.Reason != want {
					t.Errorf("field %q reason = %s, want %s", fe.Field, fe.Reason, want)
				}
			}
		})
	}
}

func TestValidate_IgnoresUnknownFields(t *testing.T) {
	meta, err := Validate(map[string]any{
		"id":             testID,
		"game_system_id": "dnd5e",
		"schema_version": float64(3),
		"maps":           []any{"world.png"},
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if meta.GameSystemID != "dnd5e" {
		t.Errorf("GameSystemID = %q", meta.GameSystemID)
	}
}

func TestValidateJSON_OrderIndependent(t *testing.T) {
	a, err := ValidateJSON([]byte(`{"id":"` + testID + `","game_system_id":"gurps","name":"n"}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ValidateJSON([]byte(`{"name":"n","game_system_id":"gurps","id":"` + testID + `"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Errorf("field order changed the result: %+v vs %+v", a, b)
	}
}

func TestValidateJSON_MalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		check func(error) bool
	}{
		{"truncated", []byte(`{"id": "`), func(err error) bool {
			var se *SyntaxError
			return errors.As(err, &se)
		}},
		{"empty", []byte(``), func(err error) bool {
			var se *SyntaxError
			return errors.As(err, &se)
		}},
		{"trailing garbage", []byte(`{} {}`), func(err error) bool {
			var se *SyntaxError
			return errors.As(err, &se)
		}},
		{"not utf8", []byte{'{', '"', 0xff, 0xfe, '"', '}'}, func(err error) bool {
			return errors.Is(err, ErrNotUTF8)
		}},
		{"array document", []byte(`[1, 2]`), func(err error) bool {
			var verrs ValidationErrors
			return errors.As(err, &verrs) && verrs[0].Reason == ReasonWrongType
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ValidateJSON(tt.data)
			if meta != nil {
				t.Errorf("expected no record, got %+v", meta)
			}
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	original, err := ValidateJSON([]byte(`{
		"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
		"game_system_id": "dnd5e",
		"name": "The Sunken Keep",
		"description": "A classic dungeon crawl.",
		"author": "J. Smith",
		"creation_date": "2024-01-15T10:00:00",
		"revision_date": "2024-03-02T08:30:00.250+02:00",
		"isbn": "978-3-16-148410-0"
	}`))
	if err != nil {
		t.Fatalf("ValidateJSON() error = %v", err)
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	again, err := ValidateJSON(data)
	if err != nil {
		t.Fatalf("re-validate error = %v (json: %s)", err, data)
	}
	if !original.Equal(again) {
		t.Errorf("round trip mismatch:\n  %+v\n  %+v", original, again)
	}
}

func TestParseISO8601(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15T10:00:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00.5", time.Date(2024, 1, 15, 10, 0, 0, 500000000, time.UTC)},
		{"2024-01-15T10:00:00Z", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15T12:00:00+02:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15 10:00:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseISO8601(tt.in)
			if err != nil {
				t.Fatalf("ParseISO8601(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseISO8601(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseISO8601("15/01/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
