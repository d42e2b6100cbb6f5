// Package vault loads the Markdown notes that feed immutable markers. It
// parses frontmatter, extracts wiki links with goldmark and builds the
// tag and link-graph index used by markerTag, linksTo and linksFrom.
package vault
