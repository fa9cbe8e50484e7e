package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// checkResult turns a failed vk.Result into an error naming the operation.
func checkResult(op string, result vk.Result) error {
	if err := vk.Error(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var end = "\x00"
var endChar byte = '\x00'

// VulkanSafeString null-terminates s for the C API.
func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}
