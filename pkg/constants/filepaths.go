package constants

import "path"

const (
	// BaseConfigFileName is the hand-authored base Butane config
	BaseConfigFileName = "config.bu"
	// MergeConfigDirName holds additional named Butane configs merged on top of the base
	MergeConfigDirName = "config.bu.d"
	// MergeConfigExtension is the file extension merge configs must carry
	MergeConfigExtension = ".bu"
	// StorageDirName holds one file tree per config unit
	StorageDirName = "src"
	// BaseUnitName is the reserved tree name paired with the base config
	BaseUnitName = "main"
	// DeclarationFileName is the per-directory metadata overlay declaration file
	DeclarationFileName = "subconfig.bu"
	// OutputFileName is where the translated Ignition config is written
	OutputFileName = "config.ign"
	// MbutanePathInternal is the default folder path of mbutane runtime state
	MbutanePathInternal = ".mbutane"
)

var (
	// BaseStoragePath is the file tree paired with the base config
	BaseStoragePath = path.Join(StorageDirName, BaseUnitName)
	// MbutanePathInternalLog is a log file that will be preserved on failure for troubleshooting
	MbutanePathInternalLog = path.Join(MbutanePathInternal, "debug.log")
)
