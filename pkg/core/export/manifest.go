package export

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// ManifestName is the info file added to every archive.
const ManifestName = "_Collection_Info.txt"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// Sanitize replaces everything but ASCII letters and digits with '_'.
func Sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// ArchiveName is the download file name for a collection.
func ArchiveName(collectionName string) string {
	return Sanitize(collectionName) + "_collection.zip"
}

var simpleExt = regexp.MustCompile(`^[a-z0-9]{1,5}$`)

// extensionOf takes the file extension from an image URL, ignoring any
// query string. Defaults to jpg.
func extensionOf(rawURL string) string {
	u := rawURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u), "."))
	if !simpleExt.MatchString(ext) {
		return "jpg"
	}
	return ext
}

func baseName(index int, title string) string {
	if title == "" {
		title = "image"
	}
	return fmt.Sprintf("%03d_%s", index+1, Sanitize(title))
}

func imageFileName(index int, it Item) string {
	return baseName(index, it.Title) + "." + extensionOf(it.URL)
}

func placeholderFileName(index int, it Item) string {
	return baseName(index, it.Title) + "_URL.txt"
}

func placeholderText(it Item) string {
	return fmt.Sprintf("Image URL: %s\nTitle: %s\nAuthor: %s\n", it.URL, it.Title, it.Author)
}

func manifestText(c Collection, r Result, at time.Time) string {
	var b strings.Builder
	b.WriteString("========================================\n")
	b.WriteString("        Mosaic Collection Export\n")
	b.WriteString("========================================\n\n")
	fmt.Fprintf(&b, "Collection Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Exported On: %s\n", at.Format("January 2, 2006 15:04 MST"))
	fmt.Fprintf(&b, "Total Images: %d\n", r.Total)
	fmt.Fprintf(&b, "Successfully Downloaded: %d\n", r.Succeeded)
	fmt.Fprintf(&b, "Failed Downloads: %d\n", r.Failed)
	fmt.Fprintf(&b, "Summary: %d succeeded, %d failed\n\n", r.Succeeded, r.Failed)
	b.WriteString("----------------------------------------\n")
	b.WriteString("IMAGE LIST\n")
	b.WriteString("----------------------------------------\n\n")
	for i, it := range c.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Title)
		fmt.Fprintf(&b, "   Author: %s\n", it.Author)
		fmt.Fprintf(&b, "   URL: %s\n\n", it.URL)
	}
	return b.String()
}
