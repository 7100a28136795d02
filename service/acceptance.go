package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

// Acceptance walks the whole HTTP surface. It is wired from the api tests
// and from the documentation generator, so every branch calls Save.
func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Create table", func(a *biff.A) {
		resp := apiRequest("POST", "/tables").
			WithBodyJson(JSON{
				"name": "my-table",
			}).Do()
		Save(resp, "Create table", `
			Tables are created empty. The name is the only required
			attribute and becomes part of the table URL.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		expectedBody := JSON{
			"name":    "my-table",
			"total":   0,
			"indexes": 0,
		}
		biff.AssertEqualJson(resp.BodyJson(), expectedBody)

		a.Alternative("Retrieve table", func(a *biff.A) {
			resp := apiRequest("GET", "/tables/my-table").Do()
			Save(resp, "Retrieve table", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			expectedBody := JSON{
				"name":    "my-table",
				"total":   0,
				"indexes": 0,
			}
			biff.AssertEqualJson(resp.BodyJson(), expectedBody)
		})

		a.Alternative("List tables", func(a *biff.A) {
			resp := apiRequest("GET", "/tables").Do()
			Save(resp, "List tables", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			expectedBody := []JSON{
				{
					"name":    "my-table",
					"total":   0,
					"indexes": 0,
				},
			}
			biff.AssertEqualJson(resp.BodyJson(), expectedBody)
		})

		a.Alternative("Create table again", func(a *biff.A) {
			resp := apiRequest("POST", "/tables").
				WithBodyJson(JSON{
					"name": "my-table",
				}).Do()
			Save(resp, "Create table - already exists", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Drop table", func(a *biff.A) {
			resp := apiRequest("DELETE", "/tables/my-table").Do()
			Save(resp, "Drop table", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			a.Alternative("Get dropped table", func(a *biff.A) {
				resp := apiRequest("GET", "/tables/my-table").Do()
				Save(resp, "Get table - not found", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})

		a.Alternative("Insert one", func(a *biff.A) {
			myDocument := JSON{
				"id":      "my-id",
				"name":    "Fulanez",
				"address": "Elm Street 11",
			}
			resp := apiRequest("POST", "/tables/my-table/documents").
				WithBodyJson(myDocument).Do()
			Save(resp, "Insert one", `
				Add a JSON document to the table 'my-table'. The server picks
				a key and returns it in the response envelope, next to the
				document it addresses.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)

			envelope := JSON{}
			json.Unmarshal([]byte(resp.BodyString()), &envelope)
			biff.AssertEqualJson(envelope["document"], myDocument)

			key, _ := envelope["key"].(string)
			biff.AssertNotEqual(key, "")

			a.Alternative("Retrieve document by key", func(a *biff.A) {
				resp := apiRequest("GET", "/tables/my-table/documents/"+key).Do()
				Save(resp, "Get document", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"key":      key,
					"document": myDocument,
				})
			})

			a.Alternative("Patch document by key", func(a *biff.A) {
				resp := apiRequest("PATCH", "/tables/my-table/documents/"+key).
					WithBodyJson(JSON{"address": nil, "country": "es"}).Do()
				Save(resp, "Patch document", `
					The body is a JSON merge patch (RFC 7386): null removes
					an attribute, anything else overwrites it.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"key": key,
					"document": JSON{
						"id":      "my-id",
						"name":    "Fulanez",
						"country": "es",
					},
				})
			})

			a.Alternative("Delete document by key", func(a *biff.A) {
				resp := apiRequest("DELETE", "/tables/my-table/documents/"+key).Do()
				Save(resp, "Delete document", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)

				a.Alternative("Get deleted document", func(a *biff.A) {
					resp := apiRequest("GET", "/tables/my-table/documents/"+key).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})
			})

			a.Alternative("Get document field", func(a *biff.A) {
				resp := apiRequest("GET", "/tables/my-table/documents/"+key+"/fields/address").Do()
				Save(resp, "Get document field", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyJson(), "Elm Street 11")
			})

			a.Alternative("Set document field", func(a *biff.A) {
				resp := apiRequest("PUT", "/tables/my-table/documents/"+key+"/fields/address").
					WithBodyString(`"Elm Street 13"`).Do()
				Save(resp, "Set document field", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"key": key,
					"document": JSON{
						"id":      "my-id",
						"name":    "Fulanez",
						"address": "Elm Street 13",
					},
				})
			})

			a.Alternative("Get missing field", func(a *biff.A) {
				resp := apiRequest("GET", "/tables/my-table/documents/"+key+"/fields/missing").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})

			a.Alternative("Get document with invalid key", func(a *biff.A) {
				resp := apiRequest("GET", "/tables/my-table/documents/not-a-key").Do()
				Save(resp, "Get document - invalid key", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Find with fullscan", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/my-table/documents:find").
					WithBodyJson(JSON{
						"skip":  0,
						"limit": 1,
						"filter": JSON{
							"name": "Fulanez",
						},
					}).Do()
				Save(resp, "Find - fullscan", `
					Without an 'index' attribute the search walks the whole
					table in insertion order. 'filter', 'skip' and 'limit'
					shrink the result.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"key":      key,
					"document": myDocument,
				})
			})

		})

		a.Alternative("Insert with explicit key", func(a *biff.A) {
			myKey := "00000000-0000-0000-0000-00000000c0ca"
			resp := apiRequest("POST", "/tables/my-table/documents").
				WithBodyJson(JSON{
					"key":      myKey,
					"document": JSON{"name": "Gervasio"},
				}).Do()
			Save(resp, "Insert with explicit key", `
				Send an envelope with 'key' and 'document' attributes to pick
				the key yourself, for example to mirror rows across
				deployments. The key must be a UUID and must not be taken.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"key":      myKey,
				"document": JSON{"name": "Gervasio"},
			})

			a.Alternative("Insert same key again", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/my-table/documents").
					WithBodyJson(JSON{
						"key":      myKey,
						"document": JSON{"name": "Impostor"},
					}).Do()
				Save(resp, "Insert - duplicate key", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusConflict)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"error": JSON{
						"message":     "duplicate key",
						"description": "a document with that key already exists",
					},
				})

				resp = apiRequest("GET", "/tables/my-table/documents/"+myKey).Do()
				body := resp.BodyJson().(JSON)
				biff.AssertEqualJson(body["document"], JSON{"name": "Gervasio"})
			})
		})

		a.Alternative("Insert many", func(a *biff.A) {

			myDocuments := []JSON{
				{"id": "1", "name": "Alfonso"},
				{"id": "2", "name": "Gerardo"},
				{"id": "3", "name": "Alfonso"},
			}

			body := ""
			for _, myDocument := range myDocuments {
				serialized, _ := json.Marshal(myDocument)
				body += string(serialized) + "\n"
			}
			resp := apiRequest("POST", "/tables/my-table/documents").
				WithBodyString(body).Do()
			Save(resp, "Insert many", `
				The request body is a JSON stream, one document per line, so
				big imports do not need a surrounding array. The response
				echoes one envelope per inserted row.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)

			a.Alternative("Create index", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/my-table/indexes").
					WithBodyJson(JSON{"name": "by-id", "type": "map", "field": "id"}).Do()
				Save(resp, "Create index", `
					Map indexes point one field value to one row and reject
					duplicates. Options other than 'name' and 'type' depend
					on the index type.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)

				a.Alternative("Find by index", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "by-id",
							"value": "2",
						}).Do()
					Save(resp, "Find - by unique index", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					body := resp.BodyJson().(JSON)
					biff.AssertEqualJson(body["document"], myDocuments[1])
				})

				a.Alternative("Delete by index", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:remove").
						WithBodyJson(JSON{
							"index": "by-id",
							"value": "2",
						}).Do()
					Save(resp, "Delete - by index", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					body := resp.BodyJson().(JSON)
					biff.AssertEqualJson(body["document"], myDocuments[1])

					resp = apiRequest("GET", "/tables/my-table").Do()
					biff.AssertEqualJson(resp.BodyJson(), JSON{
						"name":    "my-table",
						"total":   2,
						"indexes": 1,
					})
				})

				a.Alternative("Patch by index", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:patch").
						WithBodyJson(JSON{
							"index": "by-id",
							"value": "3",
							"patch": JSON{
								"name": "Pedro",
							},
						}).Do()
					Save(resp, "Patch - by index", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					body := resp.BodyJson().(JSON)
					biff.AssertEqualJson(body["document"], JSON{
						"id":   "3",
						"name": "Pedro",
					})
				})

				a.Alternative("Insert index conflict", func(a *biff.A) {
					apiRequest("POST", "/tables/my-table/documents").
						WithBodyJson(JSON{"id": "my-id", "name": "Fulanez"}).Do()
					resp := apiRequest("POST", "/tables/my-table/documents").
						WithBodyJson(JSON{"id": "my-id", "name": "Fulanez"}).Do()
					Save(resp, "Insert - unique index conflict", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusConflict)
					biff.AssertEqualJson(resp.BodyJson(), JSON{
						"error": JSON{
							"message":     "index add 'by-id': index conflict: field 'id' with value 'my-id'",
							"description": "Unexpected error",
						},
					})
				})

				a.Alternative("Find - index not found", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "invented",
							"value": "my-id",
						}).Do()
					Save(resp, "Find - index not found", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusInternalServerError)
					biff.AssertEqualJson(resp.BodyJson(), JSON{
						"error": JSON{
							"message":     "index 'invented' not found, available indexes [by-id]",
							"description": "Unexpected error",
						},
					})
				})

				a.Alternative("List indexes", func(a *biff.A) {
					resp := apiRequest("GET", "/tables/my-table/indexes").Do()
					Save(resp, "List indexes", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					expectedBody := []JSON{{"name": "by-id", "type": "map", "field": "id", "sparse": false}}
					biff.AssertEqualJson(resp.BodyJson(), expectedBody)
				})

				a.Alternative("Get index", func(a *biff.A) {
					resp := apiRequest("GET", "/tables/my-table/indexes/by-id").Do()
					Save(resp, "Retrieve index", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(resp.BodyJson(), JSON{
						"name": "by-id", "type": "map", "field": "id", "sparse": false,
					})
				})

				a.Alternative("Drop index", func(a *biff.A) {
					resp := apiRequest("DELETE", "/tables/my-table/indexes/by-id").Do()
					Save(resp, "Drop index", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

					resp = apiRequest("GET", "/tables/my-table/indexes").Do()
					biff.AssertEqualJson(resp.BodyJson(), []JSON{})
				})

				a.Alternative("Size", func(a *biff.A) {
					resp := apiRequest("GET", "/tables/my-table/size").Do()
					Save(resp, "Size", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					body := resp.BodyJson().(JSON)
					biff.AssertEqual(body["count"], float64(3))
					biff.AssertEqual(body["indexes"], float64(1))
				})

			})

			a.Alternative("Delete by fullscan", func(a *biff.A) {

				{
					resp := apiRequest("POST", "/tables/my-table/documents:remove").
						WithBodyJson(JSON{
							"limit": 10,
							"filter": JSON{
								"name": "Alfonso",
							},
						}).Do()
					Save(resp, "Delete - fullscan", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)

					removed := decodeLines(resp.BodyString())
					biff.AssertEqual(len(removed), 2)
				}

				{
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{"limit": 10}).Do()

					rows := decodeLines(resp.BodyString())
					biff.AssertEqual(len(rows), 1)
					biff.AssertEqualJson(rows[0]["document"], myDocuments[1])
				}

			})

			a.Alternative("Patch by fullscan", func(a *biff.A) {

				{
					resp := apiRequest("POST", "/tables/my-table/documents:patch").
						WithBodyJson(JSON{
							"limit": 10,
							"filter": JSON{
								"name": "Alfonso",
							},
							"patch": JSON{
								"country": "es",
							},
						}).Do()
					Save(resp, "Patch - fullscan", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)

					patched := decodeLines(resp.BodyString())
					biff.AssertEqual(len(patched), 2)
				}

				{
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{"limit": 10}).Do()

					countries := map[string]int{}
					for _, row := range decodeLines(resp.BodyString()) {
						document := row["document"].(JSON)
						if country, ok := document["country"].(string); ok {
							countries[country]++
						}
					}
					biff.AssertEqual(countries["es"], 2)
				}

			})

		})

		a.Alternative("Create index - btree", func(a *biff.A) {
			resp := apiRequest("POST", "/tables/my-table/indexes").
				WithBodyJson(JSON{"name": "by-product", "type": "btree", "fields": []string{"category", "product"}}).Do()
			Save(resp, "Create index - btree", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			expectedBody := JSON{"name": "by-product", "type": "btree", "fields": []interface{}{"category", "product"}, "sparse": false, "unique": false}
			biff.AssertEqualJson(resp.BodyJson(), expectedBody)

			a.Alternative("Insert some documents", func(a *biff.A) {

				documents := []JSON{
					{"id": "1", "category": "fruit", "product": "orange"},
					{"id": "2", "category": "drink", "product": "water"},
					{"id": "3", "category": "drink", "product": "milk"},
					{"id": "4", "category": "fruit", "product": "apple"},
				}

				for _, document := range documents {
					resp := apiRequest("POST", "/tables/my-table/documents").
						WithBodyJson(document).Do()
					biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				}

				a.Alternative("Find with btree", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "by-product",
							"skip":  0,
							"limit": 10,
						}).Do()
					Save(resp, "Find - by btree", ``)

					assertIds(resp.BodyString(), []string{"3", "2", "4", "1"})
				})

				a.Alternative("Find with btree and filter", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "by-product",
							"skip":  0,
							"limit": 10,
							"filter": JSON{
								"category": "fruit",
							},
						}).Do()
					Save(resp, "Find - by btree with filter", ``)

					assertIds(resp.BodyString(), []string{"4", "1"})
				})

				a.Alternative("Find with btree - reverse order", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index":   "by-product",
							"skip":    0,
							"limit":   10,
							"reverse": true,
						}).Do()
					Save(resp, "Find - by btree reverse order", ``)

					assertIds(resp.BodyString(), []string{"1", "4", "2", "3"})
				})

				a.Alternative("Find with btree - range", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "by-product",
							"limit": 10,
							"from":  JSON{"category": "fruit", "product": ""},
						}).Do()
					Save(resp, "Find - by btree range", `
						'from' is inclusive and 'to' is exclusive, both
						expressed as one value per indexed field.
					`)

					assertIds(resp.BodyString(), []string{"4", "1"})
				})

			})
		})

		a.Alternative("Create index - btree compound reverse", func(a *biff.A) {
			resp := apiRequest("POST", "/tables/my-table/indexes").
				WithBodyJson(JSON{"name": "by-product", "type": "btree", "fields": []string{"category", "-product"}}).Do()
			Save(resp, "Create index - btree compound", ``)

			a.Alternative("Insert some documents", func(a *biff.A) {
				documents := []JSON{
					{"id": "1", "category": "fruit", "product": "orange"},
					{"id": "2", "category": "drink", "product": "water"},
					{"id": "3", "category": "drink", "product": "milk"},
					{"id": "4", "category": "fruit", "product": "apple"},
				}

				for _, document := range documents {
					apiRequest("POST", "/tables/my-table/documents").
						WithBodyJson(document).Do()
				}

				a.Alternative("Find with btree", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "by-product",
							"skip":  0,
							"limit": 10,
						}).Do()

					assertIds(resp.BodyString(), []string{"2", "3", "1", "4"})
				})

			})
		})

		a.Alternative("Create index - fts", func(a *biff.A) {
			resp := apiRequest("POST", "/tables/my-table/indexes").
				WithBodyJson(JSON{"name": "by-title", "type": "fts", "field": "title"}).Do()
			Save(resp, "Create index - fts", `
				Full text indexes tokenize one text field. A search matches
				a document when every word of the query appears in the
				indexed field, case insensitive.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"name": "by-title", "type": "fts", "field": "title"})

			a.Alternative("Insert some documents", func(a *biff.A) {
				documents := []JSON{
					{"id": "1", "title": "Kernel panic on boot"},
					{"id": "2", "title": "Disk full panic"},
					{"id": "3", "title": "Network is unreachable"},
				}

				for _, document := range documents {
					apiRequest("POST", "/tables/my-table/documents").
						WithBodyJson(document).Do()
				}

				a.Alternative("Find with fts", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "by-title",
							"match": "PANIC kernel",
							"limit": 10,
						}).Do()
					Save(resp, "Find - by fts", ``)

					assertIds(resp.BodyString(), []string{"1"})
				})

				a.Alternative("Find with fts - no match", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/my-table/documents:find").
						WithBodyJson(JSON{
							"index": "by-title",
							"match": "panic reboot",
							"limit": 10,
						}).Do()

					biff.AssertEqual(resp.BodyString(), "")
				})

			})
		})

		a.Alternative("Find with table not found", func(a *biff.A) {

			resp := apiRequest("POST", "/tables/your-table/documents:find").
				WithBodyJson(JSON{}).Do()

			Save(resp, "Find - table not found", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			errorMessage := resp.BodyJson().(JSON)["error"].(JSON)["message"].(string)
			biff.AssertEqual(errorMessage, "table not found")
		})

	})

	a.Alternative("Insert on not existing table", func(a *biff.A) {

		myDocument := JSON{
			"id": "my-id",
		}
		resp := apiRequest("POST", "/tables/my-table/documents").
			WithBodyJson(myDocument).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)

		a.Alternative("List table", func(a *biff.A) {

			resp := apiRequest("POST", "/tables/my-table/documents:find").
				WithBodyJson(JSON{}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJson().(JSON)
			biff.AssertEqualJson(body["document"], myDocument)
		})

	})

	a.Alternative("Create index on not existing table", func(a *biff.A) {

		resp := apiRequest("POST", "/tables/my-table/indexes").
			WithBodyJson(JSON{
				"name":  "by-id",
				"type":  "map",
				"field": "id",
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
	})

}

// decodeLines reads a NDJSON response body back into a list of objects.
func decodeLines(body string) []JSON {

	result := []JSON{}

	d := json.NewDecoder(strings.NewReader(body))
	for {
		item := JSON{}
		err := d.Decode(&item)
		if err != nil {
			break
		}
		result = append(result, item)
	}

	return result
}

// assertIds checks the order in which rows come out of a find.
func assertIds(body string, expected []string) {

	ids := []string{}
	for _, row := range decodeLines(body) {
		document, _ := row["document"].(JSON)
		ids = append(ids, fmt.Sprint(document["id"]))
	}

	biff.AssertEqualJson(ids, expected)
}
