package cli

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/measuretests/internal/config"
	"github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/output"
)

// printCompletion writes a completion script for shell to stdout.
func printCompletion(w *output.Writer, shell string) int {
	cmdName := "measuretests"
	switch shell {
	case "bash":
		w.Print("%s", generateBashCompletion(cmdName))
	case "zsh":
		w.Print("%s", generateZshCompletion(cmdName))
	case "fish":
		w.Print("%s", generateFishCompletion(cmdName))
	default:
		w.ErrorPrefix("unsupported shell %q (use bash, zsh, or fish)", shell)
		return errors.ExitConfigError
	}
	return 0
}

// flagWords returns every flag spelling, long and short.
func flagWords() []string {
	var words []string
	for _, spec := range flagSpecs {
		words = append(words, "--"+spec.Long)
		if spec.Short != "" {
			words = append(words, "-"+spec.Short)
		}
	}
	return words
}

// valueChoices lists the fixed values of flags that take one.
func valueChoices(long string) string {
	switch long {
	case "format":
		return strings.Join(config.ReportFormats, " ")
	case "completions":
		return "bash zsh fish"
	}
	return ""
}

func generateBashCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_") + "_completions"

	var cases strings.Builder
	for _, spec := range flagSpecs {
		if spec.Value == "" {
			continue
		}
		if choices := valueChoices(spec.Long); choices != "" {
			fmt.Fprintf(&cases, "        --%s)\n            COMPREPLY=($(compgen -W \"%s\" -- \"${cur}\"))\n            return\n            ;;\n", spec.Long, choices)
		} else if strings.Contains(spec.Value, "FILE") || strings.Contains(spec.Value, "PATH") {
			fmt.Fprintf(&cases, "        --%s)\n            COMPREPLY=($(compgen -f -- \"${cur}\"))\n            return\n            ;;\n", spec.Long)
		}
	}

	return fmt.Sprintf(`# %[1]s bash completion
# Add to ~/.bashrc: eval "$(%[1]s --completions bash)"

%[2]s() {
    local cur prev words cword
    _init_completion || return

    local flags="%[3]s"

    case "${prev}" in
%[4]s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=($(compgen -W "${flags}" -- "${cur}"))
    fi
}

complete -F %[2]s %[1]s
`, cmdName, funcName, strings.Join(flagWords(), " "), cases.String())
}

func generateZshCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_")

	var args strings.Builder
	for _, spec := range flagSpecs {
		help := strings.NewReplacer("'", "", ":", "", "[", "(", "]", ")").Replace(spec.Help)
		action := ""
		if spec.Value != "" {
			action = ":" + strings.Trim(spec.Value, "<>") + ":"
			if choices := valueChoices(spec.Long); choices != "" {
				action += "(" + choices + ")"
			} else if strings.Contains(spec.Value, "FILE") || strings.Contains(spec.Value, "PATH") {
				action += "_files"
			}
		}
		fmt.Fprintf(&args, "        '--%s[%s]%s'\n", spec.Long, help, action)
		if spec.Short != "" {
			fmt.Fprintf(&args, "        '-%s[%s]%s'\n", spec.Short, help, action)
		}
	}

	return fmt.Sprintf(`#compdef %[1]s
# %[1]s zsh completion
# Add to ~/.zshrc: eval "$(%[1]s --completions zsh)"

%[2]s() {
    _arguments -s \
%[3]s        '1::test name filter:' \
        '*::test binary arguments:'
}

compdef %[2]s %[1]s
`, cmdName, funcName, strings.ReplaceAll(args.String(), "'\n", "' \\\n"))
}

func generateFishCompletion(cmdName string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `# %[1]s fish completion
# Add to config: %[1]s --completions fish | source

# Disable file completion by default
complete -c %[1]s -f

`, cmdName)

	for _, spec := range flagSpecs {
		help := strings.ReplaceAll(spec.Help, "'", "")
		line := fmt.Sprintf("complete -c %s -l %s", cmdName, spec.Long)
		if spec.Short != "" {
			line += " -s " + spec.Short
		}
		if spec.Value != "" {
			if choices := valueChoices(spec.Long); choices != "" {
				line += fmt.Sprintf(" -xa '%s'", choices)
			} else if strings.Contains(spec.Value, "FILE") || strings.Contains(spec.Value, "PATH") {
				line += " -rF"
			} else {
				line += " -x"
			}
		}
		fmt.Fprintf(&sb, "%s -d '%s'\n", line, help)
	}
	return sb.String()
}
