package doctable

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJSONStorage_WriteAndLoad(t *testing.T) {
	Environment(func(filename string) {

		// Phase 1: Write
		s, err := NewJSONStorage(filename)
		if err != nil {
			t.Fatalf("Failed to create storage: %v", err)
		}

		count := 100
		keys := make([]string, count)
		for i := 0; i < count; i++ {
			keys[i] = uuid.New().String()
			payload, _ := json.Marshal(&insertCommand{
				Key:      keys[i],
				Document: json.RawMessage(`{"hello":"world"}`),
			})
			err := s.Persist(&Command{
				Name:      "insert",
				Uuid:      uuid.New().String(),
				Timestamp: time.Now().UnixNano(),
				Payload:   payload,
			})
			if err != nil {
				t.Fatalf("Persist failed: %v", err)
			}
		}

		err = s.Close()
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		// Phase 2: Read
		s2, err := NewJSONStorage(filename)
		if err != nil {
			t.Fatalf("Failed to reopen storage: %v", err)
		}
		defer s2.Close()

		cmds, errs := s2.Load()
		readCount := 0
		for cmd := range cmds {
			if cmd.Err != nil {
				t.Errorf("Load error: %v", cmd.Err)
			}
			if cmd.Seq != readCount {
				t.Errorf("Expected seq %d, got %d", readCount, cmd.Seq)
			}

			// Commands must come back in append order
			payload, ok := cmd.DecodedPayload.(*insertCommand)
			if !ok {
				t.Fatalf("Expected *insertCommand, got %T", cmd.DecodedPayload)
			}
			if payload.Key != keys[readCount] {
				t.Errorf("Expected key %s at %d, got %s", keys[readCount], readCount, payload.Key)
			}

			readCount++
		}

		if err := <-errs; err != nil {
			t.Fatalf("Stream error: %v", err)
		}

		if readCount != count {
			t.Errorf("Expected %d commands, got %d", count, readCount)
		}
	})
}

func TestJSONStorage_LoadMissingFile(t *testing.T) {
	s := &JSONStorage{Filename: "does-not-exist"}

	cmds, errs := s.Load()
	readCount := 0
	for range cmds {
		readCount++
	}

	if err := <-errs; err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if readCount != 0 {
		t.Errorf("Expected 0 commands, got %d", readCount)
	}
}

func TestJSONStorage_AppendAcrossReopen(t *testing.T) {
	Environment(func(filename string) {

		names := []string{"insert", "remove", "insert"}

		persist := func(s *JSONStorage, name string) {
			err := s.Persist(&Command{
				Name:      name,
				Uuid:      uuid.New().String(),
				Timestamp: time.Now().UnixNano(),
				Payload:   json.RawMessage(`{"key":""}`),
			})
			if err != nil {
				t.Fatalf("Persist failed: %v", err)
			}
		}

		s, _ := NewJSONStorage(filename)
		persist(s, names[0])
		persist(s, names[1])
		s.Close()

		// Reopen appends, it does not truncate
		s, _ = NewJSONStorage(filename)
		persist(s, names[2])
		s.Close()

		s, _ = NewJSONStorage(filename)
		defer s.Close()
		cmds, errs := s.Load()
		loaded := []string{}
		for cmd := range cmds {
			loaded = append(loaded, cmd.Cmd.Name)
		}
		if err := <-errs; err != nil {
			t.Fatalf("Stream error: %v", err)
		}

		if len(loaded) != len(names) {
			t.Fatalf("Expected %d commands, got %d", len(names), len(loaded))
		}
		for i := range names {
			if loaded[i] != names[i] {
				t.Errorf("Expected %s at %d, got %s", names[i], i, loaded[i])
			}
		}
	})
}
