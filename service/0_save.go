package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/fulldump/apitest"
)

// Save renders one request/response exchange as a markdown example. Files are
// written only when API_EXAMPLES_PATH points to a directory, so regular test
// runs produce no output.
func Save(response *apitest.Response, title, description string) {

	w := &strings.Builder{}

	fmt.Fprintf(w, "# %s\n", title)
	fmt.Fprintf(w, "%s\n", dedent(description))

	w.WriteString("Curl example:\n\n```sh\n")
	writeCurl(w, response)
	w.WriteString("\n```\n\n\n")

	w.WriteString("HTTP request/response example:\n\n```http\n")
	writeExchange(w, response)
	w.WriteString("```\n\n\n")

	writeFile(strings.ToLower(title)+".md", w.String())
}

func writeCurl(w *strings.Builder, response *apitest.Response) {

	request := response.Request

	method := ""
	if request.Method != "GET" {
		method = "-X " + request.Method + " "
	}

	query := request.URL.RawQuery
	if query != "" {
		query = "?" + query
	}

	fmt.Fprintf(w, "curl %s\"https://example.com%s%s\"", method, request.URL.Path, query)
	for k, l := range request.Header {
		for _, v := range l {
			fmt.Fprintf(w, " \\\n-H \"%s: %s\"", k, v)
		}
	}
	if body := formatJSON(response.BodyRequestString()); body != "" {
		fmt.Fprintf(w, " \\\n-d '%s'", body)
	}
}

func writeExchange(w *strings.Builder, response *apitest.Response) {

	request := response.Request

	query := request.URL.RawQuery
	if query != "" {
		query = "?" + query
	}

	fmt.Fprintf(w, "%s %s%s %s\n", request.Method, request.URL.Path, query, request.Proto)
	w.WriteString("Host: example.com\n")
	for k, l := range request.Header {
		for _, v := range l {
			fmt.Fprintf(w, "%s: %s\n", k, v)
		}
	}
	w.WriteString("\n")
	w.WriteString(formatJSON(response.BodyRequestString()) + "\n\n")

	fmt.Fprintf(w, "%s %s\n", response.Proto, response.Status)

	headerKeys := []string{}
	for k := range response.Header {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)

	for _, k := range headerKeys {
		if k == "Date" {
			w.WriteString("Date: Mon, 15 Aug 2022 02:08:13 GMT\n")
			continue
		}
		for _, v := range response.Header[k] {
			fmt.Fprintf(w, "%s: %s\n", k, v)
		}
	}
	w.WriteString("\n")
	w.WriteString(formatJSON(response.BodyString()) + "\n")
}

func formatJSON(body string) string {

	var i interface{}

	err := json.Unmarshal([]byte(body), &i)
	if err != nil {
		return body
	}

	out, err := json.MarshalIndent(i, "", "    ")
	if err != nil {
		return body
	}

	return string(out)
}

func writeFile(filename, text string) {
	if text == "" {
		return
	}
	dir := os.Getenv("API_EXAMPLES_PATH")
	if dir == "" {
		return
	}
	filename = strings.Replace(filename, " ", "_", -1)
	p := path.Join(dir, path.Clean(filename))
	fmt.Println("Saving", p)
	if err := os.WriteFile(p, []byte(text), 0666); err != nil {
		fmt.Println("Saving err:", err)
	}
}

// dedent strips the common tab indentation that multiline descriptions pick
// up from being declared inside test code. Code fences can be written with
// acute accents (´´´) to survive Go raw string literals.
func dedent(d string) string {

	lines := strings.Split(d, "\n")

	first := 0
	last := len(lines)
	if len(lines) > 2 {
		first++
		last--
	}

	minTabs := 99999
	for _, line := range lines[first:last] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c := 0
		for _, r := range line {
			if r != '\t' {
				break
			}
			c++
		}
		if minTabs > c {
			minTabs = c
		}
	}
	if minTabs == 99999 {
		minTabs = 0
	}

	prefix := strings.Repeat("\t", minTabs)
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}

	result := strings.Join(lines, "\n")
	result = strings.Replace(result, "\n´´´", "\n```", -1)

	return result
}
