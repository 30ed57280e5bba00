package handlers

import (
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
)

const (
	// OAuth providers
	providerGoogle = "google"

	// Uploads
	uploadFormField    = "images"
	maxMultipartMemory = 8 << 20
	maxUploadBody      = imagecodec.MaxUploadBytes * studio.MaxSubjectImages

	// Server-sent events
	sseKeepAliveInterval = 25 * time.Second
)
