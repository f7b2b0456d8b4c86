package platform

// PermissionResultListener receives the outcome of a permission prompt.
type PermissionResultListener interface {
	OnRequestPermissionsResult(requestCode int, permissions []string, grantResults []int)
}

// PermissionChecker checks and requests runtime permissions.
type PermissionChecker interface {
	CheckSelfPermission(permission string) bool
	RequestPermissions(l PermissionResultListener, permissions []string, requestCode int)
}
