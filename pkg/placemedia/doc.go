// Package placemedia manages the upload and entity-binding lifecycle for
// photos attached to geolocated posts (records, asks, replies).
//
// It exposes a single Service interface that issues presigned upload
// credentials, verifies media ownership, binds uploaded media to a post,
// reconciles a post's media set on edit, and cascades cleanup on delete.
// Pluggable Repository (memory, Postgres) and BlobStore (memory, S3)
// collaborators are provided under subpackages.
//
// Lifecycle
//
// Media rows are created PENDING with no owning post when upload
// credentials are issued. They transition to COMPLETED only when bound to
// a post, and a media binds to at most one post for its lifetime. PENDING
// rows left behind by abandoned uploads are reclaimed by an external
// janitor process, not by this package.
package placemedia
