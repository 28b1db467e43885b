package modkit

import "ocrjobs/internal/modkit/module"

// Module is module.Module, re-exported so modules only import modkit
type Module = module.Module
