package doctable

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fulldump/tabledb/table"
	"github.com/fulldump/tabledb/utils"
)

// DocTable is a persistent table of JSON documents. Rows live in a dense
// in-memory table addressed by key, every mutation is appended to a journal
// file, and opening the file replays the journal to rebuild the state.
type DocTable struct {
	Filename string
	storage  Storage
	rows     *table.Table[*Row]
	mutex    *sync.RWMutex
	Indexes  map[string]Index
}

// ErrDuplicateKey is returned when an insert provides a key that is
// already taken.
var ErrDuplicateKey = table.ErrDuplicateKey

func OpenDocTable(filename string) (*DocTable, error) {
	storage, err := NewJSONStorage(filename)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	t := &DocTable{
		Filename: filename,
		storage:  storage,
		rows:     table.New[*Row](),
		mutex:    &sync.RWMutex{},
		Indexes:  map[string]Index{},
	}

	commands, errs := storage.Load()
	for loaded := range commands {
		t.applyCommand(loaded)
	}
	if err := <-errs; err != nil {
		storage.Close()
		return nil, fmt.Errorf("load table: %w", err)
	}

	return t, nil
}

// applyCommand replays one journal entry. Replay never aborts the load:
// entries that no longer apply are reported and skipped.
func (t *DocTable) applyCommand(loaded LoadedCommand) {
	switch payload := loaded.DecodedPayload.(type) {
	case *insertCommand:
		key, err := uuid.Parse(payload.Key)
		if err != nil {
			fmt.Printf("WARNING: insert: bad key '%s': %s\n", payload.Key, err.Error())
			return
		}
		row := &Row{Key: key, Payload: payload.Document}
		if err := t.addRow(row); err != nil {
			fmt.Printf("WARNING: insert '%s': %s\n", payload.Key, err.Error())
		}
	case *removeCommand:
		key, err := uuid.Parse(payload.Key)
		if err != nil {
			fmt.Printf("WARNING: remove: bad key '%s': %s\n", payload.Key, err.Error())
			return
		}
		if _, err := t.removeByKey(key, false); err != nil {
			fmt.Printf("WARNING: remove '%s': %s\n", payload.Key, err.Error())
		}
	case *patchCommand:
		key, err := uuid.Parse(payload.Key)
		if err != nil {
			fmt.Printf("WARNING: patch: bad key '%s': %s\n", payload.Key, err.Error())
			return
		}
		if _, err := t.patchByKey(key, payload.Diff, false); err != nil {
			fmt.Printf("WARNING: patch '%s': %s\n", payload.Key, err.Error())
		}
	case *setFieldCommand:
		key, err := uuid.Parse(payload.Key)
		if err != nil {
			fmt.Printf("WARNING: set_field: bad key '%s': %s\n", payload.Key, err.Error())
			return
		}
		if _, err := t.setFieldByKey(key, payload.Path, payload.Value, false); err != nil {
			fmt.Printf("WARNING: set_field '%s': %s\n", payload.Key, err.Error())
		}
	case *CreateIndexCommand:
		options, err := IndexOptions(payload.Type)
		if err != nil {
			fmt.Printf("WARNING: create index '%s': %s\n", payload.Name, err.Error())
			return
		}
		utils.Remarshal(payload.Options, options)
		if err := t.createIndex(payload.Name, options, false); err != nil {
			fmt.Printf("WARNING: create index '%s': %s\n", payload.Name, err.Error())
		}
	case *DropIndexCommand:
		if err := t.dropIndex(payload.Name, false); err != nil {
			fmt.Printf("WARNING: drop index '%s': %s\n", payload.Name, err.Error())
		}
	default:
		fmt.Printf("WARNING: unknown command '%s'\n", loaded.Cmd.Name)
	}
}

func (t *DocTable) Close() error {
	return t.storage.Close()
}

// Drop closes the table and deletes its journal file.
func (t *DocTable) Drop() error {
	err := t.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	err = os.Remove(t.Filename)
	if err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (t *DocTable) persist(name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json encode payload: %w", err)
	}

	return t.storage.Persist(&Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		StartByte: 0,
		Payload:   data,
	})
}

// Insert stores a document under a fresh random key.
func (t *DocTable) Insert(document interface{}) (*Row, error) {
	return t.insert(uuid.Nil, document)
}

// InsertWithKey stores a document under a caller-provided key. It returns
// ErrDuplicateKey if the key is already taken.
func (t *DocTable) InsertWithKey(key uuid.UUID, document interface{}) (*Row, error) {
	return t.insert(key, document)
}

func (t *DocTable) insert(key uuid.UUID, document interface{}) (*Row, error) {
	payload, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("json encode document: %w", err)
	}

	row := &Row{
		Key:     key,
		Payload: payload,
	}
	err = t.addRow(row)
	if err != nil {
		return nil, err
	}

	err = t.persist("insert", &insertCommand{
		Key:      row.Key.String(),
		Document: row.Payload,
	})
	if err != nil {
		return nil, err
	}

	return row, nil
}

func (t *DocTable) addRow(row *Row) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if row.Key == uuid.Nil {
		row.Key = t.rows.NewKey()
	} else if t.rows.Has(row.Key) {
		return ErrDuplicateKey
	}

	err := indexInsert(t.Indexes, row)
	if err != nil {
		return err
	}

	err = t.rows.InsertWithKey(row.Key, row)
	if err != nil {
		indexRemove(t.Indexes, row)
		return err
	}

	return nil
}

// Get returns the live row for a key. The second result is false when the
// key is not present.
func (t *DocTable) Get(key uuid.UUID) (*Row, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.rows.Get(key)
}

// Remove deletes a row and returns it. A missing key is not an error: the
// result is just (nil, nil).
func (t *DocTable) Remove(key uuid.UUID) (*Row, error) {
	return t.removeByKey(key, true)
}

func (t *DocTable) removeByKey(key uuid.UUID, persist bool) (*Row, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	row, exists := t.rows.Get(key)
	if !exists {
		return nil, nil
	}

	err := indexRemove(t.Indexes, row)
	if err != nil {
		return nil, fmt.Errorf("could not free index: %w", err)
	}

	t.rows.Remove(key)

	if !persist {
		return row, nil
	}

	err = t.persist("remove", &removeCommand{Key: key.String()})
	if err != nil {
		return nil, err
	}

	return row, nil
}

// Patch applies a JSON merge patch to a row and returns it. A missing key
// is not an error: the result is just (nil, nil). Patches that change
// nothing are not journaled.
func (t *DocTable) Patch(key uuid.UUID, patch interface{}) (*Row, error) {
	return t.patchByKey(key, patch, true)
}

func (t *DocTable) patchByKey(key uuid.UUID, patch interface{}, persist bool) (*Row, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	row, exists := t.rows.Get(key)
	if !exists {
		return nil, nil
	}

	originalValue, err := decodeValue(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode row payload: %w", err)
	}

	normalizedPatch, err := normalizeValue(patch)
	if err != nil {
		return nil, fmt.Errorf("normalize patch: %w", err)
	}

	newValue, changed, err := applyMergePatch(originalValue, normalizedPatch)
	if err != nil {
		return nil, fmt.Errorf("cannot apply patch: %w", err)
	}

	if !changed {
		return row, nil
	}

	newPayload, err := json.Marshal(newValue)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	err = t.swapPayload(row, newPayload)
	if err != nil {
		return nil, err
	}

	if !persist {
		return row, nil
	}

	diffValue, hasDiff := createMergeDiff(originalValue, newValue)
	if !hasDiff {
		return row, nil
	}

	diff, err := json.Marshal(diffValue)
	if err != nil {
		return nil, fmt.Errorf("json encode diff: %w", err)
	}

	err = t.persist("patch", &patchCommand{Key: key.String(), Diff: diff})
	if err != nil {
		return nil, err
	}

	return row, nil
}

// SetField overwrites a single field, addressed by a gjson path, and
// returns the row. A missing key is not an error: the result is just
// (nil, nil).
func (t *DocTable) SetField(key uuid.UUID, path string, value interface{}) (*Row, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("json encode value: %w", err)
	}
	return t.setFieldByKey(key, path, raw, true)
}

func (t *DocTable) setFieldByKey(key uuid.UUID, path string, value json.RawMessage, persist bool) (*Row, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	row, exists := t.rows.Get(key)
	if !exists {
		return nil, nil
	}

	newPayload, err := sjson.SetRawBytesOptions(row.Payload, path, value, &sjson.Options{Optimistic: true})
	if err != nil {
		return nil, fmt.Errorf("set field '%s': %w", path, err)
	}

	err = t.swapPayload(row, newPayload)
	if err != nil {
		return nil, err
	}

	if !persist {
		return row, nil
	}

	err = t.persist("set_field", &setFieldCommand{Key: key.String(), Path: path, Value: value})
	if err != nil {
		return nil, err
	}

	return row, nil
}

// GetField extracts a single field, addressed by a gjson path. The second
// result is false when the key or the field is not present.
func (t *DocTable) GetField(key uuid.UUID, path string) (gjson.Result, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	row, exists := t.rows.Get(key)
	if !exists {
		return gjson.Result{}, false
	}

	result := gjson.GetBytes(row.Payload, path)
	if !result.Exists() {
		return gjson.Result{}, false
	}

	return result, true
}

// swapPayload replaces a row payload keeping every index in sync. On index
// conflict the previous payload is restored.
func (t *DocTable) swapPayload(row *Row, payload json.RawMessage) error {
	err := indexRemove(t.Indexes, row)
	if err != nil {
		return fmt.Errorf("indexRemove: %w", err)
	}

	previous := row.Payload
	row.Payload = payload

	err = indexInsert(t.Indexes, row)
	if err != nil {
		row.Payload = previous
		indexInsert(t.Indexes, row)
		return fmt.Errorf("indexInsert: %w", err)
	}

	return nil
}

// TraverseIndex visits rows through an index, driven by index specific
// options. Return false to stop.
func (t *DocTable) TraverseIndex(name string, options []byte, f func(row *Row) bool) error {
	t.mutex.RLock()
	index, exists := t.Indexes[name]
	t.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("index '%s' not found", name)
	}

	index.Traverse(options, f)
	return nil
}

// Traverse visits every row in storage order. Return false to stop.
func (t *DocTable) Traverse(f func(row *Row) bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	t.rows.Traverse(func(key uuid.UUID, row **Row) bool {
		return f(*row)
	})
}

func (t *DocTable) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.rows.Len()
}

func (t *DocTable) Keys() []uuid.UUID {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.rows.Keys()
}

// IndexOptions returns the empty typed options for an index type name, to
// be filled with utils.Remarshal.
func IndexOptions(indexType string) (interface{}, error) {
	switch indexType {
	case "map":
		return &IndexMapOptions{}, nil
	case "btree":
		return &IndexBTreeOptions{}, nil
	case "fts":
		return &IndexFTSOptions{}, nil
	}
	return nil, fmt.Errorf("unknown index type '%s', it should be [map|btree|fts]", indexType)
}

func (t *DocTable) CreateIndex(name string, options interface{}) error {
	return t.createIndex(name, options, true)
}

func (t *DocTable) createIndex(name string, options interface{}, persist bool) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.Indexes[name]; exists {
		return fmt.Errorf("index '%s' already exists", name)
	}

	var index Index

	switch value := options.(type) {
	case *IndexMapOptions:
		index = NewIndexMap(value)
	case *IndexBTreeOptions:
		index = NewIndexBTree(value)
	case *IndexFTSOptions:
		index = NewIndexFTS(value)
	default:
		return fmt.Errorf("unexpected options parameters, it should be [map|btree|fts]")
	}

	t.Indexes[name] = index

	var err error
	t.rows.Traverse(func(key uuid.UUID, row **Row) bool {
		err = index.AddRow(*row)
		return err == nil
	})
	if err != nil {
		delete(t.Indexes, name)
		return fmt.Errorf("index row: %w", err)
	}

	if !persist {
		return nil
	}

	return t.persist("index", &CreateIndexCommand{
		Name:    name,
		Type:    index.GetType(),
		Options: options,
	})
}

func (t *DocTable) DropIndex(name string) error {
	return t.dropIndex(name, true)
}

func (t *DocTable) dropIndex(name string, persist bool) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	_, exists := t.Indexes[name]
	if !exists {
		return fmt.Errorf("index '%s' not found", name)
	}
	delete(t.Indexes, name)

	if !persist {
		return nil
	}

	return t.persist("drop_index", &DropIndexCommand{Name: name})
}

func indexInsert(indexes map[string]Index, row *Row) (err error) {
	rollbacks := make([]Index, 0, len(indexes))

	defer func() {
		if err == nil {
			return
		}
		for _, index := range rollbacks {
			index.RemoveRow(row)
		}
	}()

	for key, index := range indexes {
		err = index.AddRow(row)
		if err != nil {
			return fmt.Errorf("index add '%s': %s", key, err.Error())
		}
		rollbacks = append(rollbacks, index)
	}

	return
}

func indexRemove(indexes map[string]Index, row *Row) (err error) {
	for key, index := range indexes {
		err = index.RemoveRow(row)
		if err != nil {
			return fmt.Errorf("index remove '%s': %s", key, err.Error())
		}
	}
	return
}
