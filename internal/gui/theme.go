package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/cloudfm/cloudfm/internal/models"
)

// dashboardTheme keeps the default look but tints the accents.
type dashboardTheme struct{}

func (t *dashboardTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameButton:
		return color.NRGBA{R: 0x1A, G: 0x73, B: 0xE8, A: 0xFF}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xF4, G: 0x43, B: 0x36, A: 0xFF}
	case theme.ColorNameWarning:
		return color.NRGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *dashboardTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *dashboardTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *dashboardTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 13
	case theme.SizeNameHeadingText:
		return 18
	default:
		return theme.DefaultTheme().Size(name)
	}
}

// providerIcon picks the tab icon for a provider.
func providerIcon(p models.Provider) fyne.Resource {
	switch p {
	case models.ProviderGoogle:
		return theme.StorageIcon()
	case models.ProviderOneDrive:
		return theme.FolderIcon()
	default:
		return theme.FileIcon()
	}
}
