package memstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
)

type Command struct {
	Name      string         `json:"name"`
	Uuid      string         `json:"uuid"`
	Timestamp int64          `json:"timestamp"`
	Payload   jsontext.Value `json:"payload"`
}

// Operation is the payload of a journal command. Only the fields relevant
// to the command name are filled.
type Operation struct {
	Key    string   `json:"key,omitempty"`
	Keys   []string `json:"keys,omitempty"`
	Field  string   `json:"field,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Value  string   `json:"value,omitempty"`
	Score  float64  `json:"score,omitempty"`
}

// Journal is an append-only file of store mutations, one JSON command per
// line.
type Journal struct {
	Filename string
	file     *os.File
	mutex    *sync.Mutex
}

func OpenJournal(filename string) (*Journal, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	return &Journal{
		Filename: filename,
		file:     f,
		mutex:    &sync.Mutex{},
	}, nil
}

func (j *Journal) Append(name string, op *Operation) error {
	if j.file == nil {
		return fmt.Errorf("journal is closed")
	}

	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("json encode payload: %w", err)
	}

	command := &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		Payload:   payload,
	}

	line, err := json.Marshal(command)
	if err != nil {
		return fmt.Errorf("json encode command: %w", err)
	}
	line = append(line, '\n')

	j.mutex.Lock()
	defer j.mutex.Unlock()

	_, err = j.file.Write(line)
	if err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	return nil
}

func (j *Journal) Close() error {
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// ReadJournal streams every command stored in filename to f, stopping at
// the first error. A missing file is an empty journal.
func ReadJournal(filename string, f func(name string, op *Operation) error) error {
	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open file for read: %w", err)
	}
	defer file.Close()

	decoder := jsontext.NewDecoder(bufio.NewReader(file))
	for {
		value, err := decoder.ReadValue()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode json: %w", err)
		}

		command := &Command{}
		err = json.Unmarshal(value, command)
		if err != nil {
			return fmt.Errorf("decode command: %w", err)
		}

		op := &Operation{}
		err = json.Unmarshal(command.Payload, op)
		if err != nil {
			return fmt.Errorf("decode payload of '%s': %w", command.Name, err)
		}

		err = f(command.Name, op)
		if err != nil {
			return fmt.Errorf("replay '%s' %s: %w", command.Name, command.Uuid, err)
		}
	}
}
