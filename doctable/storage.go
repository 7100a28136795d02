package doctable

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"runtime"
	"sync"

	json2 "github.com/go-json-experiment/json"
)

type Storage interface {
	Persist(command *Command) error
	Load() (<-chan LoadedCommand, <-chan error)
	Close() error
}

// LoadedCommand is one replayed journal entry. Seq restores the original
// append order after the parallel decode.
type LoadedCommand struct {
	Seq            int
	Cmd            *Command
	DecodedPayload interface{}
	Err            error
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// JSONStorage appends commands to a journal file, one JSON value per line.
// Commands are serialized concurrently and written to disk by a single
// background goroutine, so Persist never blocks on the disk.
type JSONStorage struct {
	Filename     string
	file         *os.File
	buffer       *bufio.Writer
	commandQueue chan *Command
	closed       chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

func NewJSONStorage(filename string) (*JSONStorage, error) {
	s := &JSONStorage{
		Filename:     filename,
		commandQueue: make(chan *Command, 1000),
		closed:       make(chan struct{}),
	}

	var err error
	s.file, err = os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	s.buffer = bufio.NewWriterSize(s.file, 16*1024*1024)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

func (s *JSONStorage) writerLoop() {
	defer s.wg.Done()
	for {
		select {
		case command, ok := <-s.commandQueue:
			if !ok {
				return
			}
			buf := <-command.serialized
			s.buffer.Write(buf.Bytes())
			bufferPool.Put(buf)

		case <-s.closed:
			// Drain queue
			for {
				select {
				case command := <-s.commandQueue:
					buf := <-command.serialized
					s.buffer.Write(buf.Bytes())
					bufferPool.Put(buf)
				default:
					return
				}
			}
		}
	}
}

func (s *JSONStorage) Persist(command *Command) error {
	command.serialized = make(chan *bytes.Buffer, 1)
	go func() {
		buf := bufferPool.Get().(*bytes.Buffer)
		buf.Reset()

		json2.MarshalWrite(buf, command)
		buf.WriteByte('\n')

		command.serialized <- buf
	}()

	select {
	case s.commandQueue <- command:
		return nil
	case <-s.closed:
		return fmt.Errorf("storage closed")
	}
}

func (s *JSONStorage) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
	s.buffer.Flush()
	return s.file.Close()
}

// Load replays the journal. Lines are decoded by NumCPU workers and
// re-assembled back into append order before being sent out.
func (s *JSONStorage) Load() (<-chan LoadedCommand, <-chan error) {
	out := make(chan LoadedCommand, 100)
	errChan := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errChan)

		f, err := os.Open(s.Filename)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			errChan <- err
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		const maxCapacity = 16 * 1024 * 1024
		buf := make([]byte, maxCapacity)
		scanner.Buffer(buf, maxCapacity)

		lines := make(chan struct {
			seq  int
			data []byte
		}, 100)

		results := make(chan LoadedCommand, 100)

		concurrency := runtime.NumCPU()

		var wg sync.WaitGroup
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for item := range lines {
					cmd := &Command{}
					err := json2.Unmarshal(item.data, cmd)
					var decodedPayload interface{}
					if err == nil {
						decodedPayload, err = decodePayload(cmd)
					}
					results <- LoadedCommand{
						Seq:            item.seq,
						Cmd:            cmd,
						DecodedPayload: decodedPayload,
						Err:            err,
					}
				}
			}()
		}

		// Feeder
		go func() {
			seq := 0
			for scanner.Scan() {
				data := make([]byte, len(scanner.Bytes()))
				copy(data, scanner.Bytes())
				lines <- struct {
					seq  int
					data []byte
				}{seq, data}
				seq++
			}
			close(lines)
			if err := scanner.Err(); err != nil {
				results <- LoadedCommand{Seq: -1, Err: err}
			}
			wg.Wait()
			close(results)
		}()

		// Re-assembler
		buffer := map[int]LoadedCommand{}
		nextSeq := 0

		for res := range results {
			if res.Err != nil {
				errChan <- res.Err
				return
			}

			if res.Seq == nextSeq {
				out <- res
				nextSeq++

				for {
					if cmd, ok := buffer[nextSeq]; ok {
						delete(buffer, nextSeq)
						out <- cmd
						nextSeq++
					} else {
						break
					}
				}
			} else {
				buffer[res.Seq] = res
			}
		}
	}()

	return out, errChan
}

func decodePayload(cmd *Command) (interface{}, error) {
	switch cmd.Name {
	case "insert":
		payload := &insertCommand{}
		err := json2.Unmarshal(cmd.Payload, payload)
		return payload, err
	case "remove":
		payload := &removeCommand{}
		err := json2.Unmarshal(cmd.Payload, payload)
		return payload, err
	case "patch":
		payload := &patchCommand{}
		err := json2.Unmarshal(cmd.Payload, payload)
		return payload, err
	case "set_field":
		payload := &setFieldCommand{}
		err := json2.Unmarshal(cmd.Payload, payload)
		return payload, err
	case "index":
		payload := &CreateIndexCommand{}
		err := json2.Unmarshal(cmd.Payload, payload)
		return payload, err
	case "drop_index":
		payload := &DropIndexCommand{}
		err := json2.Unmarshal(cmd.Payload, payload)
		return payload, err
	}
	return nil, nil
}
