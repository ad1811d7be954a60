package osutil

import "os"

const (
	// PermissionDirectory is the expected permission for non-secret directories.
	PermissionDirectory os.FileMode = 0755
	// PermissionFile is the expected permission for non-secret files.
	PermissionFile os.FileMode = 0644
	// PermissionDirectoryOwnerOnly is the expected permission for directories
	// holding credential material.
	PermissionDirectoryOwnerOnly os.FileMode = 0700
	// PermissionFileOwnerOnly is the expected permission for files holding
	// credential material.
	PermissionFileOwnerOnly os.FileMode = 0600
)
