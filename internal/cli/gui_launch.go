package cli

import (
	"github.com/cloudfm/cloudfm/internal/gui"
)

// launchGUI is swapped in tests so commands never open a window.
var launchGUI = gui.Launch
