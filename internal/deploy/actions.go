// Package deploy turns the classified inventory into a deployment plan and
// pushes deployable materials to the content store, emitting provenance
// documents for traceability.
package deploy

import (
	"github.com/4jp/alchemia/internal/classifier"
	"github.com/4jp/alchemia/internal/intake"
)

// Action is the handling decision for one classified entry.
type Action string

const (
	// ActionDeploy pushes the file bytes to the content store.
	ActionDeploy Action = "deploy"
	// ActionConvert marks a docx for markdown conversion before deploy.
	// Conversion itself is out of scope; convert entries are planned and
	// reported but not pushed.
	ActionConvert Action = "convert_docx"
	// ActionReference records the file in provenance without pushing it.
	ActionReference Action = "reference"
	// ActionSkip excludes duplicates and unclassified entries entirely.
	ActionSkip Action = "skip"
)

var deployDirect = map[string]struct{}{
	".md": {}, ".txt": {}, ".py": {}, ".js": {}, ".jsx": {},
	".html": {}, ".yaml": {}, ".yml": {}, ".json": {}, ".ts": {},
	".tsx": {}, ".sh": {}, ".css": {}, ".svg": {}, ".astro": {},
}

var smallBinary = map[string]struct{}{
	".pdf": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
}

var referenceOnly = map[string]struct{}{
	".gdoc": {}, ".zip": {}, ".pages": {}, ".numbers": {},
	".plist": {}, ".tar.gz": {},
}

// Size caps for binary deployment.
const (
	MaxBinarySize  = 5 * 1024 * 1024
	MaxImageSize   = 2 * 1024 * 1024
	MaxUnknownSize = 100 * 1024
)

// ClassifyAction decides how one entry is handled during deployment.
func ClassifyAction(e *intake.Entry) Action {
	if e.Duplicate {
		return ActionSkip
	}
	if e.Classification == nil || e.Classification.Status != classifier.StatusClassified {
		return ActionSkip
	}

	ext := e.Extension
	size := e.SizeBytes

	if _, ok := deployDirect[ext]; ok {
		return ActionDeploy
	}
	if ext == ".docx" {
		return ActionConvert
	}
	if _, ok := smallBinary[ext]; ok {
		if ext == ".pdf" && size >= MaxBinarySize {
			return ActionReference
		}
		if ext != ".pdf" && size >= MaxImageSize {
			return ActionReference
		}
		return ActionDeploy
	}
	if _, ok := referenceOnly[ext]; ok {
		return ActionReference
	}

	if size < MaxUnknownSize {
		return ActionDeploy
	}
	return ActionReference
}
