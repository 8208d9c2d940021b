package models

// SettingMaintenanceMode is the settings key holding "true" while writes are
// frozen for non-admin users.
const SettingMaintenanceMode = "maintenance_mode"
