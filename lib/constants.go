package svn

// Header names used by the svnadmin dump stream format.
const (
	VersionStringHeader      = "SVN-fs-dump-format-version"
	UUIDHeader               = "UUID"
	RevisionNumberHeader     = "Revision-number"
	NodePathHeader           = "Node-path"
	NodeKindHeader           = "Node-kind"
	NodeActionHeader         = "Node-action"
	NodeCopyfromRevHeader    = "Node-copyfrom-rev"
	NodeCopyfromPathHeader   = "Node-copyfrom-path"
	PropContentLengthHeader  = "Prop-content-length"
	TextContentLengthHeader  = "Text-content-length"
	ContentLengthHeader      = "Content-length"
	TextContentMD5Header     = "Text-content-md5"
	TextContentSHA1Header    = "Text-content-sha1"
	TextCopySourceMD5Header  = "Text-copy-source-md5"
	TextCopySourceSHA1Header = "Text-copy-source-sha1"
	TextDeltaHeader          = "Text-delta"
	PropDeltaHeader          = "Prop-delta"
)

// PropsEnd terminates every property block.
const PropsEnd = "PROPS-END"

// ExternalsProperty is the directory property holding externals definitions.
const ExternalsProperty = "svn:externals"

// Node-action values.
const (
	ActionChange  = "change"
	ActionAdd     = "add"
	ActionDelete  = "delete"
	ActionReplace = "replace"
)

// Node-kind values.
const (
	KindFile = "file"
	KindDir  = "dir"
)
