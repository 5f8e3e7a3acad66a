package args

// FromCommandLine normalizes a full argv, dropping the program name.
// It is meant for applications embedding the single-instance packages that
// pass os.Args directly; the deskgate CLI hands over the positional
// arguments cobra has already separated from its flags.
func FromCommandLine(argv []string) []string {
	if len(argv) <= 1 {
		return []string{}
	}
	return Normalize(argv[1:])
}

// FromActivationData normalizes the activation data a deployment launcher
// hands to an embedding application. Entries equal to updateLocation are the
// launcher's own bookkeeping and are dropped. An empty updateLocation drops nothing.
func FromActivationData(data []string, updateLocation string) []string {
	filtered := make([]string, 0, len(data))
	for _, entry := range data {
		if updateLocation != "" && entry == updateLocation {
			continue
		}
		filtered = append(filtered, entry)
	}
	return Normalize(filtered)
}
