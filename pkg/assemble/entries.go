package assemble

import (
	"github.com/emosbaugh/yaml"
	"github.com/mbutane/mbutane/pkg/document"
	"github.com/mbutane/mbutane/pkg/scan"
)

// entriesDocument renders resolved entries as a document fragment shaped
// like the translator's storage section, so the regular sequence-
// concatenation merge rule appends them after any hand-declared entries.
func entriesDocument(entries []scan.Entry) document.Document {
	var files, directories, links []interface{}

	for _, entry := range entries {
		switch entry.Kind {
		case scan.KindDirectory:
			directories = append(directories, directoryItem(entry))
		case scan.KindLink:
			links = append(links, linkItem(entry))
		default:
			files = append(files, fileItem(entry))
		}
	}

	storage := yaml.MapSlice{}
	if len(files) > 0 {
		storage = append(storage, yaml.MapItem{Key: "files", Value: files})
	}
	if len(directories) > 0 {
		storage = append(storage, yaml.MapItem{Key: "directories", Value: directories})
	}
	if len(links) > 0 {
		storage = append(storage, yaml.MapItem{Key: "links", Value: links})
	}

	if len(storage) == 0 {
		return document.Document{}
	}
	return document.FromMapSlice(yaml.MapSlice{
		{Key: "storage", Value: storage},
	})
}

func fileItem(entry scan.Entry) yaml.MapSlice {
	item := yaml.MapSlice{
		{Key: "path", Value: entry.Path},
	}
	// zero-length files carry no contents reference; the translator
	// creates them empty
	if len(entry.Content) > 0 {
		item = append(item, yaml.MapItem{
			Key: "contents",
			Value: yaml.MapSlice{
				{Key: "local", Value: entry.Source},
			},
		})
	}
	return append(item, metaItems(entry.Meta)...)
}

func directoryItem(entry scan.Entry) yaml.MapSlice {
	item := yaml.MapSlice{
		{Key: "path", Value: entry.Path},
	}
	return append(item, metaItems(entry.Meta)...)
}

func linkItem(entry scan.Entry) yaml.MapSlice {
	item := yaml.MapSlice{
		{Key: "path", Value: entry.Path},
		{Key: "target", Value: entry.Target},
	}
	return append(item, metaItems(entry.Meta)...)
}

func metaItems(meta scan.Metadata) yaml.MapSlice {
	var items yaml.MapSlice
	if meta.Mode != nil {
		items = append(items, yaml.MapItem{Key: "mode", Value: *meta.Mode})
	}
	if meta.User != nil {
		items = append(items, yaml.MapItem{Key: "user", Value: yaml.MapSlice{
			{Key: "name", Value: *meta.User},
		}})
	}
	if meta.Group != nil {
		items = append(items, yaml.MapItem{Key: "group", Value: yaml.MapSlice{
			{Key: "name", Value: *meta.Group},
		}})
	}
	if meta.Overwrite != nil {
		items = append(items, yaml.MapItem{Key: "overwrite", Value: *meta.Overwrite})
	}
	return items
}
