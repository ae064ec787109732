package endpoint

// MimeType is the content type of a multipart file part.
type MimeType string

const (
	ImageJPEG MimeType = "image/jpeg"
	ImagePNG  MimeType = "image/png"
)

// Part is a value that can only be sent in a multipart/form-data body.
type Part interface {
	Value
	part()
}

// FilePart uploads the file at Path.
type FilePart struct {
	Path     string
	FileName string
	MimeType MimeType
}

// DataPart uploads Data as a file.
type DataPart struct {
	Data     []byte
	FileName string
	MimeType MimeType
}

// TextPart is a plain form field.
type TextPart string

func (FilePart) value() {}
func (DataPart) value() {}
func (TextPart) value() {}

func (FilePart) part() {}
func (DataPart) part() {}
func (TextPart) part() {}

func (FilePart) MarshalJSON() ([]byte, error) { return nil, ErrNotJSONEncodable }
func (DataPart) MarshalJSON() ([]byte, error) { return nil, ErrNotJSONEncodable }
func (TextPart) MarshalJSON() ([]byte, error) { return nil, ErrNotJSONEncodable }
