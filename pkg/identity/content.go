package identity

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
)

// contentStrategy opens the document itself and looks for the inpatient
// identifier element: an <id> whose "root" attribute carries the configured
// OID; its "extension" attribute is the patient id. The person name is
// recovered through the roster's reverse index when the id is on the roster.
//
// Malformed or unreadable documents are absorbed here: the strategy logs the
// failure and yields the unknown tuple, never an error.
type contentStrategy struct {
	root   string
	roster *roster.Roster
	logger *zap.Logger
}

func (s *contentStrategy) Name() string { return "content" }

func (s *contentStrategy) Resolve(ref document.Ref, _ document.CategoryCode) Resolution {
	f, err := os.Open(ref.Path)
	if err != nil {
		s.logger.Warn("content extraction: cannot open document",
			zap.String("path", ref.Path),
			zap.Error(err),
		)
		return unresolved()
	}
	defer f.Close()

	id, err := findPatientID(f, s.root)
	if err != nil {
		s.logger.Warn("content extraction: malformed document",
			zap.String("path", ref.Path),
			zap.Error(err),
		)
		return unresolved()
	}
	if id == "" {
		return unresolved()
	}

	name := document.Unknown
	if s.roster != nil {
		if n, ok := s.roster.NameForID(id); ok {
			name = n
		}
	}
	return Resolution{PatientID: id, PersonName: name}
}

// findPatientID streams through the markup looking for the first id element
// whose root attribute equals oid, returning its extension attribute. An
// empty return with nil error means the document parsed but carries no such
// element.
func findPatientID(r io.Reader, oid string) (string, error) {
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		if err != nil {
			return "", err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "id" {
			continue
		}

		var root, extension string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "root":
				root = attr.Value
			case "extension":
				extension = attr.Value
			}
		}
		if root == oid && strings.TrimSpace(extension) != "" {
			return strings.TrimSpace(extension), nil
		}
	}
}
