package serializer

import (
	"github.com/mdouchement/travellog/internal/model"
)

// Pending serializes the given pending story without its photo payload.
func Pending(p *model.Pending) map[string]any {
	m := map[string]any{
		"id":          p.ID,
		"description": p.Description,
		"createdAt":   p.CreatedAt,
		"photo": map[string]any{
			"filename":     p.Photo.Filename,
			"content_type": p.Photo.ContentType,
			"size":         p.Photo.Size,
		},
	}
	if p.HasLocation() {
		m["lat"] = *p.Lat
		m["lon"] = *p.Lon
	}
	return m
}

// Pendings serializes the given pending stories.
func Pendings(pendings []*model.Pending) []map[string]any {
	list := make([]map[string]any, 0, len(pendings))
	for _, p := range pendings {
		list = append(list, Pending(p))
	}
	return list
}
