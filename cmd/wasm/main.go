//go:build js && wasm
// +build js,wasm

package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/catalog"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/exchange"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/transcript"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorInvalidHTML
	ErrorNothingToExport
	ErrorInvalidPackage
)

func stringArg(args []js.Value, i int, name string) (string, js.Value, bool) {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return "", makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("%s must be a string", name)), false
	}
	return args[i].String(), js.Value{}, true
}

func parseDocument(args []js.Value) (*transcript.Document, js.Value, bool) {
	rich, resp, ok := stringArg(args, 0, "html")
	if !ok {
		return nil, resp, false
	}
	root, err := transcript.ParseHTMLString(rich)
	if err != nil {
		return nil, makeErrorResponse(ErrorInvalidHTML, fmt.Sprintf("Failed to parse transcript: %v", err)), false
	}
	return transcript.NewDocument(root), js.Value{}, true
}

// Projects the editor markup to plain text and tagged spans.
// Returns: {error: number, data: {text, spans} | string}
func tripodExtract(this js.Value, args []js.Value) interface{} {
	doc, resp, ok := parseDocument(args)
	if !ok {
		return resp
	}
	spans := doc.Spans
	if spans == nil {
		spans = []transcript.TaggedSpan{}
	}
	return makeJSONResponse(map[string]any{"text": doc.Text, "spans": spans})
}

// Returns: {error: number, data: [{ref, start, end, sentence, tags}] | string}
func tripodSentences(this js.Value, args []js.Value) interface{} {
	doc, resp, ok := parseDocument(args)
	if !ok {
		return resp
	}
	sentences := doc.Sentences()
	if sentences == nil {
		sentences = []transcript.Sentence{}
	}
	return makeJSONResponse(sentences)
}

// Returns: {error: number, data: csv string}
func tripodCSV(this js.Value, args []js.Value) interface{} {
	doc, resp, ok := parseDocument(args)
	if !ok {
		return resp
	}
	notes := ""
	if len(args) > 1 && args[1].Type() == js.TypeString {
		notes = args[1].String()
	}

	out := doc.CSV(notes)
	if out == "" {
		return makeErrorResponse(ErrorNothingToExport, "Nothing to export")
	}
	return makeResponse(out)
}

// Returns: {error: number, data: [{name, markers}]}
func tripodMarkers(this js.Value, args []js.Value) interface{} {
	cat := catalog.Default()
	return makeJSONResponse(map[string]any{
		"groups":        cat.Groups(),
		"profiles":      cat.Profiles(),
		"genres":        cat.Genres(),
		"consentLevels": cat.ConsentLevels(),
	})
}

// Builds a JSON entry package from an entry and its base64 audio.
// Returns: {error: number, data: {json, audioEmbedded} | string}
func tripodExport(this js.Value, args []js.Value) interface{} {
	entryJSON, resp, ok := stringArg(args, 0, "entryJSON")
	if !ok {
		return resp
	}

	var entry models.Entry
	if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid entry: %v", err))
	}

	var blob *models.AudioBlob
	if len(args) > 2 && args[1].Type() == js.TypeString && args[1].String() != "" {
		data, err := base64.StdEncoding.DecodeString(args[1].String())
		if err != nil {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid audio base64: %v", err))
		}
		blob = &models.AudioBlob{MimeType: args[2].String(), Data: data}
	}

	data, embedded, err := exchange.Export(entry, blob, exchange.DefaultAudioLimit)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}
	return makeJSONResponse(map[string]any{
		"json":          string(data),
		"fileName":      exchange.FileName(entry.ID),
		"audioEmbedded": embedded,
	})
}

// Returns: {error: number, data: {entry, audio?: {base64, mimeType}} | string}
func tripodImport(this js.Value, args []js.Value) interface{} {
	pkgJSON, resp, ok := stringArg(args, 0, "packageJSON")
	if !ok {
		return resp
	}

	entry, blob, err := exchange.Import([]byte(pkgJSON))
	if err != nil {
		return makeErrorResponse(ErrorInvalidPackage, err.Error())
	}

	out := exchange.Package{Entry: *entry}
	if blob != nil {
		out.Audio = &exchange.Audio{
			Base64:   base64.StdEncoding.EncodeToString(blob.Data),
			MimeType: blob.MimeType,
		}
	}
	return makeJSONResponse(out)
}

func makeResponse(data any) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

// makeJSONResponse hands structured results over as parsed JS objects.
func makeJSONResponse(v any) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Failed to encode result: %v", err))
	}
	return makeResponse(js.Global().Get("JSON").Call("parse", string(data)))
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 Tripod WASM module initializing...")
	}

	done := make(chan struct{})

	exports := map[string]func(js.Value, []js.Value) interface{}{
		"tripodExtract":   tripodExtract,
		"tripodSentences": tripodSentences,
		"tripodCSV":       tripodCSV,
		"tripodMarkers":   tripodMarkers,
		"tripodExport":    tripodExport,
		"tripodImport":    tripodImport,
	}
	for name, fn := range exports {
		js.Global().Set(name, js.FuncOf(fn))
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ Tripod WASM module loaded and ready")
	}

	<-done
}
