package service

import (
	"os"
	"path"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/sirupsen/logrus"

	"github.com/fulldump/recordkv/utils"
)

// Save writes a markdown example of the request and response to
// $API_EXAMPLES_PATH, named after title. Nothing is written when the
// variable is not set.
func Save(response *apitest.Response, title, description string) {

	examplesPath := os.Getenv("API_EXAMPLES_PATH")
	if examplesPath == "" {
		return
	}

	request := response.Request

	query := request.URL.RawQuery
	if query != "" {
		query = "?" + query
	}
	requestBody := formatJSON(response.BodyRequestString())

	b := &strings.Builder{}

	b.WriteString("# " + title + "\n")
	b.WriteString(cropTabs(description) + "\n")

	b.WriteString("Curl example:\n\n```sh\ncurl ")
	if request.Method != "GET" {
		b.WriteString("-X " + request.Method + " ")
	}
	b.WriteString("\"https://example.com" + request.URL.Path + query + "\"")
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			b.WriteString(" \\\n-H \"" + k + ": " + v + "\"")
		}
	}
	if requestBody != "" {
		b.WriteString(" \\\n-d '" + requestBody + "'")
	}
	b.WriteString("\n```\n\n\n")

	b.WriteString("HTTP request/response example:\n\n```http\n")
	b.WriteString(request.Method + " " + request.URL.Path + query + " " + request.Proto + "\n")
	b.WriteString("Host: example.com\n")
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			b.WriteString(k + ": " + v + "\n")
		}
	}
	b.WriteString("\n" + requestBody + "\n\n")

	b.WriteString(response.Proto + " " + response.Status + "\n")
	for _, k := range utils.GetKeys(response.Header) {
		if k == "Date" {
			b.WriteString("Date: Mon, 15 Aug 2022 02:08:13 GMT\n")
			continue
		}
		for _, v := range response.Header[k] {
			b.WriteString(k + ": " + v + "\n")
		}
	}
	b.WriteString("\n" + formatJSON(response.BodyString()) + "\n```\n\n\n")

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(examplesPath, path.Clean(filename))
	err := os.WriteFile(p, []byte(b.String()), 0666)
	if err != nil {
		logrus.WithError(err).WithField("file", p).Error("save api example")
		return
	}
	logrus.WithField("file", p).Debug("api example saved")
}

func formatJSON(body string) string {
	value := jsontext.Value(body)
	err := value.Indent(jsontext.WithIndent("    "))
	if err != nil {
		return body
	}
	return string(value)
}

// cropTabs removes the indentation shared by every line of a description
// written inline in a test.
func cropTabs(d string) string {
	lines := strings.Split(d, "\n")

	minTabs := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := len(line) - len(strings.TrimLeft(line, "\t"))
		if minTabs < 0 || tabs < minTabs {
			minTabs = tabs
		}
	}
	if minTabs <= 0 {
		return strings.TrimSpace(d)
	}

	prefix := strings.Repeat("\t", minTabs)
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
