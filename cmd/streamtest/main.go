package main

// Pushes a JSON stream into a table while reading the response at the same
// time, to check that inserts flow in both directions concurrently.

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

func main() {

	r, w := io.Pipe()

	e := json.NewEncoder(w)

	go func() {
		for i := 0; i < 1000; i++ {

			e.Encode(map[string]any{
				"id":      i,
				"payload": strings.Repeat("fake ", 1000),
			})

			fmt.Println("sent", i)
		}
		w.Close()
	}()

	req, err := http.NewRequest("POST", "http://localhost:8080/v1/tables/streammm/documents", r)
	if err != nil {
		fmt.Println("ERROR: new request:", err.Error())
		os.Exit(3)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("ERROR: do request:", err.Error())
		os.Exit(4)
	}

	d := json.NewDecoder(resp.Body)

	var o json.RawMessage

	for {
		err := d.Decode(&o)
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Println("ERROR: response body:", err.Error())
			os.Exit(5)
		}

		fmt.Println("RECEIVED:", string(o))
	}
}
