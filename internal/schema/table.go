package schema

// forbidden keys are written by the generator and never taken from callers.
var forbidden = map[string]struct{}{
	"output_file_tag":        {},
	"log_output_folder":      {},
	"llg_output_folder":      {},
	"mc_output_folder":       {},
	"gneb_output_folder":     {},
	"mmf_output_folder":      {},
	"ema_output_folder":      {},
	"hamiltonian":            {},
	"interaction_pairs_file": {},
	"lattice_constant":       {},
	"bravais_lattice":        {},
	"mc_max_walltime":        {},
	"llg_max_walltime":       {},
	"gneb_max_walltime":      {},
	"mmf_max_walltime":       {},
	"ema_max_walltime":       {},
}

var (
	anyInt   = Int{}
	anyFloat = Float{}
	vec3     = FloatVector{Len: 3}
)

var rules = map[string]Rule{
	// io
	"save_input_initial":      Bool{},
	"save_input_final":        Bool{},
	"save_positions_initial":  Bool{},
	"save_positions_final":    Bool{},
	"save_neighbours_initial": Bool{},
	"save_neighbours_final":   Bool{},

	// log
	"log_to_console":    Bool{},
	"log_to_file":       Bool{},
	"log_console_level": Int{Between(0, 6)},
	"log_file_level":    Int{Between(0, 6)},

	// geometry and hamiltonian
	"boundary_conditions":      BoolVector{Len: 3},
	"n_basis_cells":            IntVector{Len: 3},
	"mu_s":                     FloatVector{Range: AtLeast(0)},
	"external_field_magnitude": anyFloat,
	"external_field_normal":    vec3,
	"anisotropy_magnitude":     anyFloat,
	"anisotropy_normal":        vec3,
	"ddi_method":               Enum{Allowed: []string{"fft", "fmm", "cutoff", "none"}},
	"ddi_n_periodic_images":    IntVector{Len: 3},
	"ddi_radius":               anyFloat,
	"ddi_pb_zero_padding":      Bool{},

	// monte carlo
	"mc_seed":                                anyInt,
	"mc_n_iterations":                        anyInt,
	"mc_n_iterations_log":                    anyInt,
	"mc_temperature":                         anyFloat,
	"mc_acceptance_ratio":                    anyFloat,
	"mc_output_any":                          Bool{},
	"mc_output_initial":                      Bool{},
	"mc_output_final":                        Bool{},
	"mc_output_energy_step":                  Bool{},
	"mc_output_energy_archive":               Bool{},
	"mc_output_energy_spin_resolved":         Bool{},
	"mc_output_energy_divide_by_nspins":      Bool{},
	"mc_output_energy_add_readability_lines": Bool{},
	"mc_output_configuration_step":           Bool{},
	"mc_output_configuration_archive":        Bool{},
	"mc_output_configuration_filetype":       anyInt,

	// llg
	"llg_seed":                                anyInt,
	"llg_n_iterations":                        anyInt,
	"llg_n_iterations_log":                    anyInt,
	"llg_renorm":                              Bool{},
	"llg_temperature":                         anyFloat,
	"llg_temperature_gradient_direction":      vec3,
	"llg_temperature_gradient_inclination":    anyFloat,
	"llg_damping":                             anyFloat,
	"llg_beta":                                anyFloat,
	"llg_dt":                                  anyFloat,
	"llg_stt_use_gradient":                    Bool{},
	"llg_stt_magnitude":                       anyFloat,
	"llg_stt_polarisation_normal":             vec3,
	"llg_force_convergence":                   anyFloat,
	"llg_output_any":                          Bool{},
	"llg_output_initial":                      Bool{},
	"llg_output_final":                        Bool{},
	"llg_output_energy_step":                  Bool{},
	"llg_output_energy_archive":               Bool{},
	"llg_output_energy_spin_resolved":         Bool{},
	"llg_output_energy_divide_by_nspins":      Bool{},
	"llg_output_energy_add_readability_lines": Bool{},
	"llg_output_configuration_step":           Bool{},
	"llg_output_configuration_archive":        Bool{},
	"llg_output_configuration_filetype":       anyInt,

	// gneb
	"gneb_renorm":                                Bool{},
	"gneb_spring_constant":                       anyFloat,
	"gneb_force_convergence":                     anyFloat,
	"gneb_n_energy_interpolations":               anyInt,
	"gneb_n_iterations":                          anyInt,
	"gneb_n_iterations_log":                      anyInt,
	"gneb_output_any":                            Bool{},
	"gneb_output_initial":                        Bool{},
	"gneb_output_final":                          Bool{},
	"gneb_output_energies_step":                  Bool{},
	"gneb_output_energies_interpolated":          Bool{},
	"gneb_output_energies_divide_by_nspins":      Bool{},
	"gneb_output_energies_add_readability_lines": Bool{},
	"gneb_output_chain_step":                     Bool{},
	"gneb_output_chain_filetype":                 anyInt,

	// mmf
	"mmf_force_convergence":                   anyFloat,
	"mmf_n_iterations":                        anyInt,
	"mmf_n_iterations_log":                    anyInt,
	"mmf_n_modes":                             anyInt,
	"mmf_n_mode_follow":                       anyInt,
	"mmf_output_any":                          Bool{},
	"mmf_output_initial":                      Bool{},
	"mmf_output_final":                        Bool{},
	"mmf_output_energy_step":                  Bool{},
	"mmf_output_energy_archive":               Bool{},
	"mmf_output_energy_divide_by_nspins":      Bool{},
	"mmf_output_energy_add_readability_lines": Bool{},
	"mmf_output_configuration_step":           Bool{},
	"mmf_output_configuration_archive":        Bool{},
	"mmf_output_configuration_filetype":       anyInt,

	// ema
	"ema_frequency":                           anyFloat,
	"ema_amplitude":                           anyFloat,
	"ema_n_iterations":                        anyInt,
	"ema_n_iterations_log":                    anyInt,
	"ema_n_modes":                             anyInt,
	"ema_n_mode_follow":                       anyInt,
	"ema_output_any":                          Bool{},
	"ema_output_initial":                      Bool{},
	"ema_output_final":                        Bool{},
	"ema_output_energy_step":                  Bool{},
	"ema_output_energy_archive":               Bool{},
	"ema_output_energy_divide_by_nspins":      Bool{},
	"ema_output_energy_spin_resolved":         Bool{},
	"ema_output_energy_add_readability_lines": Bool{},
	"ema_output_configuration_step":           Bool{},
	"ema_output_configuration_archive":        Bool{},
	"ema_output_configuration_filetype":       anyInt,
}
