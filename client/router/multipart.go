package router

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/adamwoolhether/apiclient/client/endpoint"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// parts checks that params can be sent as multipart/form-data.
func parts(params endpoint.Params) (map[string]endpoint.Part, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: multipart encoding requires parameters", ErrMalformedParameters)
	}

	out := make(map[string]endpoint.Part, len(params))
	for k, v := range params {
		p, ok := v.(endpoint.Part)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q is %T, not a multipart part", ErrMalformedParameters, k, v)
		}
		out[k] = p
	}

	return out, nil
}

// writeMultipart encodes params into a new file in store and returns it
// with the form's content type. The file is removed on failure.
func writeMultipart(store *fileStore, params endpoint.Params) (tf *TempFile, contentType string, err error) {
	ps, err := parts(params)
	if err != nil {
		return nil, "", err
	}

	f, err := store.create(uuid.NewString())
	if err != nil {
		return nil, "", &MultipartError{Reason: "creating temp file", Err: err}
	}

	created := &TempFile{path: f.Name(), store: store}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &MultipartError{Reason: "closing temp file", Err: cerr}
		}
		if err != nil {
			_ = created.Remove()
			tf = nil
		}
	}()

	mw := multipart.NewWriter(f)
	for _, k := range params.Keys() {
		if err := writePart(mw, k, ps[k]); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", &MultipartError{Reason: "closing form", Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		return nil, "", &MultipartError{Reason: "reading temp file size", Err: err}
	}
	created.size = info.Size()

	return created, mw.FormDataContentType(), nil
}

func writePart(mw *multipart.Writer, name string, p endpoint.Part) error {
	switch p := p.(type) {
	case endpoint.TextPart:
		if err := mw.WriteField(name, string(p)); err != nil {
			return &MultipartError{Reason: fmt.Sprintf("writing field %q", name), Err: err}
		}
		return nil

	case endpoint.DataPart:
		w, err := createFile(mw, name, p.FileName, p.MimeType)
		if err != nil {
			return err
		}
		if _, err := w.Write(p.Data); err != nil {
			return &MultipartError{Reason: fmt.Sprintf("writing data for %q", name), Err: err}
		}
		return nil

	case endpoint.FilePart:
		src, err := os.Open(p.Path)
		if err != nil {
			return &MultipartError{Reason: fmt.Sprintf("opening file for %q", name), Err: err}
		}
		defer src.Close()

		w, err := createFile(mw, name, p.FileName, p.MimeType)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, src); err != nil {
			return &MultipartError{Reason: fmt.Sprintf("copying file for %q", name), Err: err}
		}
		return nil
	}

	return &MultipartError{Reason: fmt.Sprintf("unsupported part %T for %q", p, name)}
}

func createFile(mw *multipart.Writer, name, fileName string, mimeType endpoint.MimeType) (io.Writer, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(name), quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", string(mimeType))

	w, err := mw.CreatePart(h)
	if err != nil {
		return nil, &MultipartError{Reason: fmt.Sprintf("creating part %q", name), Err: err}
	}

	return w, nil
}
