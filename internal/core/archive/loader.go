package archive

import (
	"github.com/neilberkman/dmclient/internal/core/models"
	"github.com/neilberkman/dmclient/internal/core/schema"
)

// PropertiesEntry is the metadata document every archive carries at its root
const PropertiesEntry = "properties.json"

// Load reads and validates the metadata of the archive at path.
//
// Any failure, whether the file is not a bzip2 tar, properties.json is
// missing, the JSON is malformed or the schema rejects it, is returned as
// *InvalidArchiveMetadataError. The cause stays reachable through
// errors.As for callers that want to log it (schema.ValidationErrors,
// *ReadError, *NoSuchArchiveFileError, ...).
func Load(path string) (*models.ArchiveMeta, error) {
	data, err := ExtractEntry(path, PropertiesEntry)
	if err != nil {
		return nil, &InvalidArchiveMetadataError{Path: path, Cause: err}
	}

	meta, err := schema.ValidateJSON(data)
	if err != nil {
		return nil, &InvalidArchiveMetadataError{Path: path, Cause: err}
	}

	meta.LastSeenPath = path
	return meta, nil
}

// OpenCampaign loads the metadata of a campaign archive
func OpenCampaign(path string) (*models.ArchiveMeta, error) {
	return Load(path)
}
