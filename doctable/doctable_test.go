package doctable

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"
	"testing"

	. "github.com/fulldump/biff"
	"github.com/google/uuid"
)

func TestInsert(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)

		// Run
		row, _ := c.Insert(map[string]interface{}{
			"hello": "world",
		})
		c.Close()

		// Check
		fileContent, _ := os.ReadFile(filename)
		command := &Command{}
		json.Unmarshal(fileContent, command)
		AssertEqual(command.Name, "insert")

		params := &insertCommand{}
		json.Unmarshal(command.Payload, params)
		AssertEqual(params.Key, row.Key.String())
		AssertEqual(string(params.Document), `{"hello":"world"}`)
	})
}

func TestInsert_Concurrency(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()

		n := 100

		wg := &sync.WaitGroup{}
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Insert(map[string]interface{}{"hello": "world"})
			}()
		}

		wg.Wait()

		AssertEqual(c.Len(), n)
	})
}

func TestInsertWithKey(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()

		// Run
		key := uuid.New()
		row, err := c.InsertWithKey(key, map[string]interface{}{"name": "Pablo"})

		// Check
		AssertNil(err)
		AssertEqual(row.Key, key)

		found, exists := c.Get(key)
		AssertTrue(exists)
		AssertEqualJson(found.Payload, map[string]interface{}{"name": "Pablo"})
	})
}

func TestInsertWithKey_Duplicate(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		key := uuid.New()
		c.InsertWithKey(key, map[string]interface{}{"name": "Pablo"})

		// Run
		_, err := c.InsertWithKey(key, map[string]interface{}{"name": "Sara"})

		// Check
		AssertEqual(err, ErrDuplicateKey)
		AssertEqual(c.Len(), 1)

		row, _ := c.Get(key)
		AssertEqualJson(row.Payload, map[string]interface{}{"name": "Pablo"})
	})
}

func TestGet_Absent(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()

		row, exists := c.Get(uuid.New())

		AssertNil(row)
		AssertFalse(exists)
	})
}

func TestRemove(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		c.Insert(map[string]interface{}{"name": "Pablo"})
		sara, _ := c.Insert(map[string]interface{}{"name": "Sara"})
		c.Insert(map[string]interface{}{"name": "Ana"})

		// Run
		removed, err := c.Remove(sara.Key)

		// Check
		AssertNil(err)
		AssertEqualJson(removed.Payload, map[string]interface{}{"name": "Sara"})
		AssertEqual(c.Len(), 2)

		_, exists := c.Get(sara.Key)
		AssertFalse(exists)
	})
}

func TestRemove_Absent(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()

		removed, err := c.Remove(uuid.New())

		AssertNil(err)
		AssertNil(removed)
	})
}

func TestPatch(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		row, _ := c.Insert(map[string]interface{}{
			"name": "Pablo",
			"address": map[string]interface{}{
				"street": "Calle Mayor",
				"city":   "Madrid",
			},
		})

		// Run
		patched, err := c.Patch(row.Key, map[string]interface{}{
			"address": map[string]interface{}{
				"city": "Sevilla",
			},
		})

		// Check
		AssertNil(err)
		AssertEqualJson(patched.Payload, map[string]interface{}{
			"name": "Pablo",
			"address": map[string]interface{}{
				"street": "Calle Mayor",
				"city":   "Sevilla",
			},
		})
	})
}

// A null value in a merge patch deletes the field.
func TestPatch_RemoveField(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		row, _ := c.Insert(map[string]interface{}{"name": "Pablo", "email": "pablo@email.com"})

		// Run
		patched, err := c.Patch(row.Key, map[string]interface{}{"email": nil})

		// Check
		AssertNil(err)
		AssertEqualJson(patched.Payload, map[string]interface{}{"name": "Pablo"})
	})
}

func TestPatch_Absent(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()

		row, err := c.Patch(uuid.New(), map[string]interface{}{"name": "Sara"})

		AssertNil(err)
		AssertNil(row)
	})
}

// A patch that does not modify the document must not reach the journal.
func TestPatch_NoChange(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		row, _ := c.Insert(map[string]interface{}{"name": "Pablo"})

		// Run
		_, err := c.Patch(row.Key, map[string]interface{}{"name": "Pablo"})
		c.Close()

		// Check
		AssertNil(err)
		fileContent, _ := os.ReadFile(filename)
		AssertEqual(bytes.Count(fileContent, []byte("\n")), 1)
	})
}

func TestSetField(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		row, _ := c.Insert(map[string]interface{}{
			"name":  "Pablo",
			"score": 10,
		})

		// Run
		updated, err := c.SetField(row.Key, "score", 42)

		// Check
		AssertNil(err)
		AssertEqualJson(updated.Payload, map[string]interface{}{
			"name":  "Pablo",
			"score": 42,
		})
	})
}

func TestGetField(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		row, _ := c.Insert(map[string]interface{}{
			"name": "Pablo",
			"address": map[string]interface{}{
				"city": "Madrid",
			},
		})

		// Run
		result, exists := c.GetField(row.Key, "address.city")

		// Check
		AssertTrue(exists)
		AssertEqual(result.Str, "Madrid")
	})
}

func TestGetField_Absent(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()
		row, _ := c.Insert(map[string]interface{}{"name": "Pablo"})

		_, exists := c.GetField(row.Key, "email")
		AssertFalse(exists)

		_, exists = c.GetField(uuid.New(), "name")
		AssertFalse(exists)
	})
}

func TestTraverse(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		n := 10
		for i := 0; i < n; i++ {
			c.Insert(map[string]interface{}{"i": i})
		}

		// Run
		visited := 0
		c.Traverse(func(row *Row) bool {
			visited++
			return true
		})

		// Check
		AssertEqual(visited, n)
	})
}

func TestPersistenceInsertAndIndex(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		c.Insert(map[string]interface{}{"id": "1", "name": "Pablo", "email": []string{"pablo@email.com", "pablo2018@yahoo.com"}})
		c.CreateIndex("by email", &IndexMapOptions{Field: "email"})
		c.Insert(map[string]interface{}{"id": "2", "name": "Sara", "email": []string{"sara@email.com", "sara.jimenez8@yahoo.com"}})
		c.Close()

		// Run
		c, _ = OpenDocTable(filename)
		defer c.Close()

		user := struct {
			Id    string
			Name  string
			Email []string
		}{}
		found := false
		c.TraverseIndex("by email", []byte(`{"value":"sara@email.com"}`), func(row *Row) bool {
			found = true
			json.Unmarshal(row.Payload, &user)
			return true
		})

		// Check
		AssertTrue(found)
		AssertEqual(user.Id, "2")
	})
}

func TestPersistenceRemove(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		pablo, _ := c.Insert(map[string]interface{}{"name": "Pablo"})
		sara, _ := c.Insert(map[string]interface{}{"name": "Sara"})
		c.Remove(pablo.Key)
		c.Close()

		// Run
		c, _ = OpenDocTable(filename)
		defer c.Close()

		// Check
		AssertEqual(c.Len(), 1)

		_, exists := c.Get(pablo.Key)
		AssertFalse(exists)

		row, exists := c.Get(sara.Key)
		AssertTrue(exists)
		AssertEqualJson(row.Payload, map[string]interface{}{"name": "Sara"})
	})
}

func TestPersistencePatch(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		row, _ := c.Insert(map[string]interface{}{"id": "1", "name": "Pablo"})
		c.Patch(row.Key, map[string]interface{}{"name": "Jaime"})
		c.Close()

		// Run
		c, _ = OpenDocTable(filename)
		defer c.Close()

		// Check
		AssertEqual(c.Len(), 1)

		reloaded, exists := c.Get(row.Key)
		AssertTrue(exists)
		AssertEqualJson(reloaded.Payload, map[string]interface{}{"id": "1", "name": "Jaime"})
	})
}

func TestPersistenceSetField(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		row, _ := c.Insert(map[string]interface{}{"name": "Pablo", "score": 10})
		c.SetField(row.Key, "score", 42)
		c.Close()

		// Run
		c, _ = OpenDocTable(filename)
		defer c.Close()

		// Check
		result, exists := c.GetField(row.Key, "score")
		AssertTrue(exists)
		AssertEqual(result.Value(), float64(42))
	})
}

func TestPersistenceDropIndex(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		c.CreateIndex("by id", &IndexMapOptions{Field: "id"})
		c.Insert(map[string]interface{}{"id": "1"})
		c.DropIndex("by id")
		c.Close()

		// Run
		c, _ = OpenDocTable(filename)
		defer c.Close()

		// Check
		AssertEqual(len(c.Indexes), 0)

		// The unique constraint is gone with the index
		_, err := c.Insert(map[string]interface{}{"id": "1"})
		AssertNil(err)
	})
}

func TestCreateIndex_Collision(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		c.Insert(map[string]interface{}{"id": "1", "name": "Pablo"})
		c.Insert(map[string]interface{}{"id": "1", "name": "Sara"})

		// Run
		err := c.CreateIndex("by id", &IndexMapOptions{Field: "id"})

		// Check
		AssertNotNil(err)
		AssertEqual(len(c.Indexes), 0)
	})
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()
		c.CreateIndex("by id", &IndexMapOptions{Field: "id"})

		err := c.CreateIndex("by id", &IndexMapOptions{Field: "id"})

		AssertNotNil(err)
		AssertEqual(err.Error(), "index 'by id' already exists")
	})
}

func TestIndexSparse(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		c.Insert(map[string]interface{}{"id": "1"})

		// Run
		errIndex := c.CreateIndex("by email", &IndexMapOptions{Field: "email", Sparse: true})

		// Check
		AssertNil(errIndex)
		AssertEqual(len(c.Indexes["by email"].(*IndexMap).Entries), 0)
	})
}

func TestIndexNonSparse(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		c.Insert(map[string]interface{}{"id": "1"})

		// Run
		errIndex := c.CreateIndex("by email", &IndexMapOptions{Field: "email", Sparse: false})

		// Check
		AssertNotNil(errIndex)
		AssertEqual(errIndex.Error(), "index row: field `email` is indexed and mandatory")
	})
}

func TestInsertConflict(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		c.CreateIndex("by id", &IndexMapOptions{Field: "id"})
		c.Insert(map[string]interface{}{"id": "1", "name": "Pablo"})

		// Run
		_, err := c.Insert(map[string]interface{}{"id": "1", "name": "Sara"})

		// Check
		AssertNotNil(err)
		AssertEqual(c.Len(), 1)
	})
}

// A rejected patch must leave the document and the index as they were.
func TestPatchConflictRollback(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		defer c.Close()
		c.CreateIndex("by id", &IndexMapOptions{Field: "id"})
		c.Insert(map[string]interface{}{"id": "1", "name": "Pablo"})
		sara, _ := c.Insert(map[string]interface{}{"id": "2", "name": "Sara"})

		// Run
		_, err := c.Patch(sara.Key, map[string]interface{}{"id": "1"})

		// Check
		AssertNotNil(err)

		row, _ := c.Get(sara.Key)
		AssertEqualJson(row.Payload, map[string]interface{}{"id": "2", "name": "Sara"})

		found := false
		c.TraverseIndex("by id", []byte(`{"value":"2"}`), func(row *Row) bool {
			found = true
			return true
		})
		AssertTrue(found)
	})
}

func TestTraverseIndex_NotFound(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()

		err := c.TraverseIndex("nope", []byte(`{}`), func(row *Row) bool {
			return true
		})

		AssertNotNil(err)
		AssertEqual(err.Error(), "index 'nope' not found")
	})
}

func TestDropIndex_NotFound(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenDocTable(filename)
		defer c.Close()

		err := c.DropIndex("nope")

		AssertNotNil(err)
		AssertEqual(err.Error(), "index 'nope' not found")
	})
}

func TestDrop(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenDocTable(filename)
		c.Insert(map[string]interface{}{"name": "Pablo"})

		// Run
		err := c.Drop()

		// Check
		AssertNil(err)
		_, statErr := os.Stat(filename)
		AssertTrue(os.IsNotExist(statErr))
	})
}
