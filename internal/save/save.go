// Package save implements the on-disk save-file format (§6.2): an
// external collaborator that serializes either raw BF source or an
// optimized IR program, for the CLI's save/load subcommands.
//
// Grounded on original_source/src/save/mod.rs: the magic-plus-flag header
// byte layout, the YAML front-matter block, and the leading-bracketed-
// comment convention for bare source files all carry over; CBOR support
// from the original is dropped (see DESIGN.md) since no CBOR library
// appears anywhere in the retrieved corpus.
package save

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"bf/internal/bferr"
	"bf/internal/ir"
	"bf/internal/raw"
)

// magic starts every save-format file; it begins with ']', which is never
// a valid leading byte for a file meant to be read as BF source (a lone
// close-bracket is an unmatched parenthesis), so the two formats never
// collide.
const magic = "]bf"

const (
	flagPlain      = 'p'
	flagCompressed = 'c'
)

// Content names which payload a header carries.
type Content string

const (
	ContentSource Content = "source"
	ContentIR     Content = "ir"
)

// ErrBadMagic is returned when a file claims to be save-format but its
// header bytes don't match.
var ErrBadMagic = errors.New("save: not a recognized save-format file")

type header struct {
	Description string  `yaml:"description,omitempty"`
	Content     Content `yaml:"content"`
}

// Document is the result of loading a save-format (or bare) file.
type Document struct {
	Description string
	Content     Content
	Source      *raw.Program // set iff Content == ContentSource
	IR          *ir.Program  // set iff Content == ContentIR
}

// nodeDTO mirrors ir.Node for JSON serialization, keeping the core ir
// package free of any encoding concerns.
type nodeDTO struct {
	Kind   ir.Kind   `json:"kind"`
	Amount int       `json:"amount,omitempty"`
	Offset int       `json:"offset,omitempty"`
	Body   []nodeDTO `json:"body,omitempty"`
}

func toDTO(b ir.Block) []nodeDTO {
	out := make([]nodeDTO, len(b))
	for i, n := range b {
		out[i] = nodeDTO{Kind: n.Kind, Amount: n.Amount, Offset: n.Offset, Body: toDTO(n.Body)}
	}
	return out
}

func fromDTO(d []nodeDTO) ir.Block {
	out := make(ir.Block, len(d))
	for i, n := range d {
		out[i] = ir.Node{Kind: n.Kind, Amount: n.Amount, Offset: n.Offset, Body: fromDTO(n.Body)}
	}
	return out
}

// SaveSource writes p's textual source to w under the save-format header.
func SaveSource(w io.Writer, p *raw.Program, description string, compress bool) error {
	return write(w, header{Description: description, Content: ContentSource}, []byte(p.AsText()), compress)
}

// SaveIR writes p's optimized IR, JSON-encoded, to w under the save-format
// header.
func SaveIR(w io.Writer, p *ir.Program, description string, compress bool) error {
	payload, err := json.Marshal(toDTO(p.Top))
	if err != nil {
		return bferr.Wrap(bferr.IOError, -1, err, "save: encoding IR as JSON")
	}
	return write(w, header{Description: description, Content: ContentIR}, payload, compress)
}

func write(w io.Writer, h header, payload []byte, compress bool) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	flag := []byte{flagPlain}
	if compress {
		flag[0] = flagCompressed
	}
	if _, err := w.Write(flag); err != nil {
		return err
	}

	hdrYAML, err := yaml.Marshal(h)
	if err != nil {
		return bferr.Wrap(bferr.IOError, -1, err, "save: encoding YAML header")
	}
	if _, err := fmt.Fprintf(w, "\n---\n%s\n...\n", hdrYAML); err != nil {
		return err
	}

	if !compress {
		_, err := w.Write(payload)
		return err
	}
	fw, err := flate.NewWriter(w, flate.BestCompression)
	if err != nil {
		return err
	}
	if _, err := fw.Write(payload); err != nil {
		return err
	}
	return fw.Close()
}

// Load reads a file written by Save{Source,IR}, or — if it lacks the
// magic header — treats the whole input as bare BF source, lifting a
// leading bracketed comment into the description.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return loadBare(data)
	}
	return loadFormatted(data)
}

func loadFormatted(data []byte) (*Document, error) {
	rest := data[len(magic):]
	if len(rest) < 1 {
		return nil, ErrBadMagic
	}
	flag, rest := rest[0], rest[1:]

	const headerOpen, headerClose = "\n---\n", "\n...\n"
	i := bytes.Index(rest, []byte(headerOpen))
	if i != 0 {
		return nil, ErrBadMagic
	}
	rest = rest[len(headerOpen):]
	j := bytes.Index(rest, []byte(headerClose))
	if j < 0 {
		return nil, ErrBadMagic
	}
	hdrYAML, payload := rest[:j], rest[j+len(headerClose):]

	var h header
	if err := yaml.Unmarshal(hdrYAML, &h); err != nil {
		return nil, bferr.Wrap(bferr.IOError, -1, err, "save: decoding YAML header")
	}

	switch flag {
	case flagCompressed:
		fr := flate.NewReader(bytes.NewReader(payload))
		defer fr.Close()
		decoded, err := io.ReadAll(fr)
		if err != nil {
			return nil, bferr.Wrap(bferr.IOError, -1, err, "save: inflating payload")
		}
		payload = decoded
	case flagPlain:
		// payload already holds the raw bytes.
	default:
		return nil, fmt.Errorf("save: unrecognized compression flag %q", flag)
	}

	doc := &Document{Description: h.Description, Content: h.Content}
	switch h.Content {
	case ContentSource:
		p, err := raw.FromBytes(payload)
		if err != nil {
			return nil, err
		}
		doc.Source = p
	case ContentIR:
		var dto []nodeDTO
		if err := json.Unmarshal(payload, &dto); err != nil {
			return nil, bferr.Wrap(bferr.IOError, -1, err, "save: decoding IR JSON")
		}
		doc.IR = &ir.Program{Top: fromDTO(dto)}
	default:
		return nil, fmt.Errorf("save: unrecognized content kind %q", h.Content)
	}
	return doc, nil
}

func loadBare(data []byte) (*Document, error) {
	p, err := raw.FromBytes(data)
	if err != nil {
		return nil, err
	}
	return &Document{
		Description: leadingComment(data),
		Content:     ContentSource,
		Source:      p,
	}, nil
}

// leadingComment extracts the text of a leading "[...]" comment, a common
// hand-written-header convention for .bf files: the loop is a no-op (the
// tape starts at zero) that doubles as a human-readable description.
func leadingComment(data []byte) string {
	s := strings.TrimLeft(string(data), " \t\r\n")
	if !strings.HasPrefix(s, "[") {
		return ""
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[1:i])
			}
		}
	}
	return ""
}
