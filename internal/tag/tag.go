// Package tag writes ID3v2 metadata onto downloaded episodes so they sort
// correctly in podcast players.
package tag

import (
	"context"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"

	"cbcgrab/internal/fetch"
)

type Metadata struct {
	Title   string
	Album   string
	Artist  string
	PubDate string
	// CoverURL, when set, is fetched and embedded as front cover art.
	CoverURL string
}

// Apply rewrites the file's tag in place. Cover art failures abort the
// whole apply so the caller can log one warning instead of shipping a
// half-tagged file.
func Apply(ctx context.Context, client *fetch.Client, path string, md Metadata) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer t.Close()

	t.SetDefaultEncoding(id3v2.EncodingUTF8)
	if md.Title != "" {
		t.SetTitle(md.Title)
	}
	if md.Album != "" {
		t.SetAlbum(md.Album)
	}
	if md.Artist != "" {
		t.SetArtist(md.Artist)
	}
	if md.PubDate != "" {
		t.AddTextFrame(t.CommonID("Recording time"), id3v2.EncodingUTF8, md.PubDate)
	}

	if md.CoverURL != "" && client != nil {
		art, err := client.Bytes(ctx, md.CoverURL)
		if err != nil {
			return err
		}
		t.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mimeFor(md.CoverURL),
			PictureType: id3v2.PTFrontCover,
			Description: "cover",
			Picture:     art,
		})
	}

	return t.Save()
}

func mimeFor(url string) string {
	if strings.Contains(url, ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
