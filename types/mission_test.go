package types //nolint:revive // types is a valid package name

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMissionRequest_Validate(t *testing.T) {
	zero := int64(0)
	seven := int64(7)

	tests := []struct {
		name    string
		req     MissionRequest
		wantErr bool
	}{
		{"valid", MissionRequest{UserInput: "H100 pricing"}, false},
		{"valid with conversation", MissionRequest{UserInput: "x", ConversationID: &seven}, false},
		{"empty input", MissionRequest{UserInput: ""}, true},
		{"whitespace input", MissionRequest{UserInput: "  \n"}, true},
		{"non-positive conversation", MissionRequest{UserInput: "x", ConversationID: &zero}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMissionRequest_JSONOmitsConversation(t *testing.T) {
	got, err := json.Marshal(MissionRequest{UserInput: "q"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(got) != `{"user_input":"q"}` {
		t.Errorf("Marshal = %s", got)
	}
}

func TestMissionLog_Decode(t *testing.T) {
	raw := `{"id":3,"conversation_id":null,"query":"gpu prices","response":"report","status":"COMPLETED","created_at":"2024-12-15T10:30:00.123456"}`

	var log MissionLog
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := log.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if log.ConversationID != nil {
		t.Errorf("ConversationID = %v, want nil", *log.ConversationID)
	}
	want := time.Date(2024, 12, 15, 10, 30, 0, 123456000, time.UTC)
	if log.CreatedAt == nil || !log.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", log.CreatedAt, want)
	}
}

func TestMissionLog_InvalidStatus(t *testing.T) {
	var log MissionLog
	if err := json.Unmarshal([]byte(`{"id":1,"status":"DONE"}`), &log); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := log.Validate(); err == nil {
		t.Error("expected invalid status to fail validation")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-12-15T10:30:00Z", false},
		{"2024-12-15T10:30:00+02:00", false},
		{"2024-12-15T10:30:00", false},
		{"2024-12-15 10:30:00.5", false},
		{"yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}
