package app

import (
	"github.com/specialistvlad/markbuild/internal/filters"
	"github.com/specialistvlad/markbuild/internal/typereg"
	"github.com/specialistvlad/markbuild/modules/copyfile"
	"github.com/specialistvlad/markbuild/modules/echo"
	"github.com/specialistvlad/markbuild/modules/movefile"
)

// coreModules is the definitive list of all modules that are compiled into
// the markbuild binary.
var coreModules = []typereg.Module{
	&filters.Module{},
	&copyfile.Module{},
	&movefile.Module{},
	&echo.Module{},
}
