// Package admin implements yamdbctl, the operator tool for running schema
// migrations and granting or revoking the staff and superuser flags that
// lift an account to the admin level.
package admin
