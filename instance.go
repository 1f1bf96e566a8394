package plate

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

// InstanceOptions customizes instance creation. The zero value produces a
// Vulkan 1.2 instance with no validation.
type InstanceOptions struct {
	AppName    string
	AppVersion common.Version

	EngineName    string
	EngineVersion common.Version

	// APIVersion defaults to Vulkan 1.2.
	APIVersion common.APIVersion

	// Validation enables the Khronos validation layer and a debug
	// messenger that logs warnings and errors.
	Validation bool

	// Extra instance extensions and layers beyond what the window
	// surface and validation require.
	ExtraExtensions []string
	ExtraLayers     []string
}

func (o *InstanceOptions) withDefaults() InstanceOptions {
	opts := InstanceOptions{}
	if o != nil {
		opts = *o
	}
	if opts.AppName == "" {
		opts.AppName = "plate application"
	}
	if opts.AppVersion == 0 {
		opts.AppVersion = common.CreateVersion(1, 0, 0)
	}
	if opts.EngineName == "" {
		opts.EngineName = "plate"
	}
	if opts.EngineVersion == 0 {
		opts.EngineVersion = common.CreateVersion(1, 0, 0)
	}
	if opts.APIVersion == 0 {
		opts.APIVersion = common.Vulkan1_2
	}
	return opts
}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logValidation,
	}
}

func logValidation(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}

func createInstance(globalDriver core1_0.GlobalDriver, window Window, opts InstanceOptions) (instanceDriver core1_0.CoreInstanceDriver, err error) {
	createInfo := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: opts.AppVersion,
		EngineName:         opts.EngineName,
		EngineVersion:      opts.EngineVersion,
		APIVersion:         opts.APIVersion,
	}

	extensions, _, err := globalDriver.AvailableExtensions()
	if err != nil {
		return instanceDriver, err
	}

	for _, ext := range window.InstanceExtensions() {
		_, hasExt := extensions[ext]
		if !hasExt {
			return instanceDriver, errors.Newf("surface extension %s is not available", ext)
		}
		createInfo.EnabledExtensionNames = append(createInfo.EnabledExtensionNames, ext)
	}
	createInfo.EnabledExtensionNames = append(createInfo.EnabledExtensionNames, opts.ExtraExtensions...)

	if opts.Validation {
		createInfo.EnabledExtensionNames = append(createInfo.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	// Vulkan portability, necessary to run on mobile & mac
	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		createInfo.EnabledExtensionNames = append(createInfo.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		createInfo.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	layers, _, err := globalDriver.AvailableLayers()
	if err != nil {
		return instanceDriver, err
	}

	if opts.Validation {
		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return instanceDriver, errors.Newf("validation layer %s is not available- install the LunarG Vulkan SDK", layer)
			}
			createInfo.EnabledLayerNames = append(createInfo.EnabledLayerNames, layer)
		}

		createInfo.Next = debugMessengerOptions()
	}
	createInfo.EnabledLayerNames = append(createInfo.EnabledLayerNames, opts.ExtraLayers...)

	instanceDriver, _, err = globalDriver.CreateInstance(nil, createInfo)
	if err != nil {
		return instanceDriver, err
	}

	return instanceDriver, nil
}
