package config

const (
	// MaxItemNameLength is the maximum length for folder and file names.
	// Limited to 255 to fit in VARCHAR(255) columns.
	MaxItemNameLength = 255

	// MaxMultipartMemory is the in-memory budget for parsing upload forms;
	// larger parts spill to temporary files.
	MaxMultipartMemory = 32 << 20

	// MaxSearchResults caps fuzzy search responses.
	MaxSearchResults = 50

	// RootLabel is the display name of the root breadcrumb.
	RootLabel = "Documents"

	// CopySuffix is appended to the name of a pasted folder subtree root.
	CopySuffix = " - copy"
)

const (
	// MaxUploadFiles caps the number of files in one upload request.
	MaxUploadFiles = 20
)
