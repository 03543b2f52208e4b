package simplepublish

import "fmt"

// Upload folder sub-contexts, one per placement kind.
const (
	folderBanners = "banners"
	folderContent = "content"
	folderInline  = "inline"
	folderGallery = "gallery"
	folderVideos  = "videos"
)

// WalkResult is the outcome of a discovery pass over a document.
type WalkResult struct {
	// Tasks holds one task per unique pending local reference, in
	// deterministic traversal order: banner images (index order), banner
	// video, then blocks in document order (gallery items in array
	// order, rich text scanned with the inline grammar).
	Tasks []UploadTask

	// Occurrences counts every pending placement, including duplicates
	// of the same reference.
	Occurrences int
}

// WalkDocument discovers every pending local media reference in the
// document exactly once. It is a pure pass: the document is not
// modified. An ID occurring N times yields a single task; the resolved
// result is broadcast to all occurrences by ApplyResolutions.
func WalkDocument(doc *ContentDocument) (*WalkResult, error) {
	w := &walkState{seen: make(map[string]bool)}

	for i, ref := range doc.BannerImages {
		w.addSync(ref, fmt.Sprintf("banner[%d]", i), folderBanners)
	}

	if doc.BannerVideo.IsLocal() {
		if doc.BannerProvider == ProviderQueued {
			if err := w.addQueued(doc.BannerVideo, "bannerVideo", doc.BannerVideoMeta); err != nil {
				return nil, err
			}
		} else {
			w.addSync(doc.BannerVideo, "bannerVideo", folderVideos)
		}
	}

	for i, block := range doc.Blocks {
		path := fmt.Sprintf("block[%d]", i)
		switch {
		case block.Kind == BlockKindImage:
			w.addSync(block.Media, path, folderContent)

		case block.Kind == BlockKindVideo:
			if !block.Media.IsLocal() {
				continue
			}
			if block.Provider == ProviderQueued {
				if err := w.addQueued(block.Media, path, block.VideoMeta); err != nil {
					return nil, err
				}
			} else {
				w.addSync(block.Media, path, folderVideos)
			}

		case block.Kind == BlockKindGallery:
			for j, item := range block.Gallery {
				w.addSync(item, fmt.Sprintf("%s.gallery[%d]", path, j), folderGallery)
			}

		case richTextKinds[block.Kind]:
			for _, id := range ExtractInlineRefs(block.Text) {
				w.addSync(LocalRef(id), path+".inline", folderInline)
			}
		}
	}

	return &WalkResult{Tasks: w.tasks, Occurrences: w.occurrences}, nil
}

type walkState struct {
	tasks       []UploadTask
	seen        map[string]bool
	occurrences int
}

func (w *walkState) addSync(ref MediaRef, path, folder string) {
	if !ref.IsLocal() {
		return
	}
	w.occurrences++
	if w.seen[ref.LocalID] {
		return
	}
	w.seen[ref.LocalID] = true
	w.tasks = append(w.tasks, UploadTask{
		Ref:         ref,
		LogicalPath: path,
		Provider:    ProviderSync,
		Folder:      folder,
	})
}

func (w *walkState) addQueued(ref MediaRef, path string, meta *VideoMetadata) error {
	w.occurrences++
	if w.seen[ref.LocalID] {
		return nil
	}
	if meta == nil {
		return fmt.Errorf("%s: %w", path, ErrMissingVideoMetadata)
	}
	w.seen[ref.LocalID] = true
	w.tasks = append(w.tasks, UploadTask{
		Ref:         ref,
		LogicalPath: path,
		Provider:    ProviderQueued,
		Folder:      folderVideos,
		VideoMeta:   meta,
	})
	return nil
}

// ApplyResolutions is the rewrite pass: it substitutes every occurrence
// of a resolved local reference with its durable (or queued
// placeholder) form, in place. Queued results additionally record the
// job ID where the reference lives and flip the document's processing
// status. Unresolved references are left untouched.
func ApplyResolutions(doc *ContentDocument, resolved map[string]MediaRef) {
	if len(resolved) == 0 {
		return
	}

	inline := make(map[string]string, len(resolved))
	for id, ref := range resolved {
		inline[id] = ref.String()
	}

	for i, ref := range doc.BannerImages {
		if r, ok := lookupLocal(resolved, ref); ok {
			doc.BannerImages[i] = r
		}
	}

	if r, ok := lookupLocal(resolved, doc.BannerVideo); ok {
		doc.BannerVideo = r
		if r.State == MediaRefQueued {
			doc.BannerVideoJobID = r.JobID
			doc.ProcessingStatus = ProcessingStatusQueued
		}
	}

	for i := range doc.Blocks {
		block := &doc.Blocks[i]
		switch {
		case block.Kind == BlockKindImage || block.Kind == BlockKindVideo:
			r, ok := lookupLocal(resolved, block.Media)
			if !ok {
				continue
			}
			block.Media = r
			if r.State == MediaRefQueued {
				if block.Settings == nil {
					block.Settings = make(map[string]any)
				}
				block.Settings[SettingQueuedJobID] = r.JobID
				block.Settings[SettingUploadStatus] = UploadStatusQueued
				doc.ProcessingStatus = ProcessingStatusQueued
			}

		case block.Kind == BlockKindGallery:
			for j, item := range block.Gallery {
				if r, ok := lookupLocal(resolved, item); ok {
					block.Gallery[j] = r
				}
			}

		case richTextKinds[block.Kind]:
			block.Text = RewriteInlineRefs(block.Text, inline)
		}
	}

	// The featured image mirrors the banner strip: resolve it through
	// the broadcast map, falling back to the first durable banner.
	if doc.FeaturedImage.IsLocal() {
		if r, ok := lookupLocal(resolved, doc.FeaturedImage); ok {
			doc.FeaturedImage = r
		} else if len(doc.BannerImages) > 0 && doc.BannerImages[0].State == MediaRefRemote {
			doc.FeaturedImage = doc.BannerImages[0]
		}
	}
}

func lookupLocal(resolved map[string]MediaRef, ref MediaRef) (MediaRef, bool) {
	if !ref.IsLocal() {
		return MediaRef{}, false
	}
	r, ok := resolved[ref.LocalID]
	return r, ok
}
