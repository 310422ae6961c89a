package scan

// Kind is the filesystem object kind an Entry represents.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindLink:
		return "link"
	default:
		return "file"
	}
}

// Metadata is the overridable per-path attribute block. Nil fields are
// unspecified and left for the translator to default.
type Metadata struct {
	User      *string
	Group     *string
	Mode      *int
	Overwrite *bool
}

// Entry is one scanned filesystem object destined for the merged document.
type Entry struct {
	Kind Kind

	// Path is the absolute, slash-separated path of the object relative to
	// the scanned tree root, e.g. "/etc/hostname".
	Path string

	// Source is the object's path relative to the project root, e.g.
	// "src/main/etc/hostname". The translator resolves file contents
	// against the project root using this path.
	Source string

	// Content holds the raw bytes of a regular file.
	Content []byte

	// Executable is set when the source file carries the owner-execute bit.
	Executable bool

	// Target is the literal (unresolved) target of a symbolic link.
	Target string

	Meta Metadata
}
