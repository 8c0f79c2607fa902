// ABOUTME: Version information for the player binary
// ABOUTME: Product, manufacturer and release constants shown by -version and the TUI
package version

const (
	Product      = "lowlat-player"
	Manufacturer = "Resonate Protocol"
	Version      = "0.1.0"
)

// String returns the product and version for banners and logs
func String() string {
	return Product + " " + Version + " (" + Manufacturer + ")"
}
