package cli

const (
	msgWelcome = "Welcome to the COVID-19 Vaccine Reservation Scheduling Application!"
	msgPrompt  = "> "

	msgTryAgain            = "Please try again!"
	msgInvalidOperation    = "Invalid operation name!"
	msgBye                 = "Bye!"
	msgCreateFailed        = "Failed to create user."
	msgUsernameTaken       = "Username taken, try again!"
	msgCreatedUser         = "Created user %s"
	msgAlreadyLoggedIn     = "User already logged in."
	msgLoginFailed         = "Login failed."
	msgLoggedInAs          = "Logged in as: %s"
	msgLoginFirst          = "Please login first!"
	msgLogInFirst          = "Please log in first."
	msgLoginAsPatient      = "Please login as a patient!"
	msgLoginAsCaregiver    = "Please login as a caregiver first!"
	msgNoCaregivers        = "No available caregivers found for that date"
	msgScheduleFound       = "Schedule search successful."
	msgAvailableCaregivers = "Available caregivers:"
	msgAvailableVaccines   = "========Available Vaccines========"
	msgVaccineLine         = "%s: %d"
	msgReservationFailed   = "Reservation failed."
	msgIncorrectInputs     = "Incorrect number of inputs"
	msgInvalidDate         = "Please enter a valid date!"
	msgNoSuchVaccine       = "No such vaccine"
	msgOutOfStock          = "Not enough available doses!"
	msgSlotTaken           = "The caregiver was just booked by someone else."
	msgReserved            = "Appointment ID: %d, Caregiver username: %s"
	msgAvailabilityAdded   = "Availability uploaded!"
	msgCanceled            = "Appointment cancelled!"
	msgAppointmentNotFound = "Appointment not found."
	msgDosesUpdated        = "Doses updated!"
	msgSearchFailed        = "Appointment search failed."
	msgNoAppointments      = "No appointments scheduled."
	msgAppointmentLine     = "%d %s %s %s %s"
	msgLoggedOut           = "Successfully logged out!"
	msgLogoutFirst         = "Please login first."
)

const usage = ` *** Please enter one of the following commands ***
> create_patient <username> <password>
> create_caregiver <username> <password>
> login_patient <username> <password>
> login_caregiver <username> <password>
> search_caregiver_schedule <date>
> reserve <date> <vaccine>
> upload_availability <date>
> cancel <appointment_id>
> add_doses <vaccine> <number>
> show_appointments
> logout
> help
> quit`
